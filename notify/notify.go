package notify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sorane/community-archiver/compress"
	"github.com/sorane/community-archiver/discord"
	"github.com/sorane/community-archiver/download"
	"github.com/sorane/community-archiver/logger"
	"github.com/sorane/community-archiver/post"
)

const accentColor = "#584AD7"

// SendPost delivers one post view to a webhook: body text, attachment
// images, the attached video as its own embed, and an optional divider
// image closing the post.
func SendPost(ctx context.Context, webhook *discord.Webhook, view *post.View, now time.Time, dividerImage string) error {
	builder := discord.NewBuilder(baseMessage(view), baseEmbed(view, now))

	builder.AddBody(view.ContentText)
	for _, attachment := range view.Attachments {
		builder.AddImage(attachment)
	}
	if view.Video != nil {
		builder.AddEmbed(videoEmbed(view, now))
	}
	if dividerImage != "" {
		if err := builder.AddFilePath("divider.png", dividerImage); err != nil {
			logger.Logger.Printf("[WARN] Cannot attach divider image: %v", err)
		}
	}

	return builder.Flush(ctx, webhook)
}

// SendMediaStatus reports the three download outcome sets of one post to a
// webhook, attaching downloaded files small enough to travel along.
// Directories are zipped for the ride and the temporary archives removed
// after the send.
func SendMediaStatus(ctx context.Context, webhook *discord.Webhook, view *post.View, result download.Result, now time.Time) error {
	if result.Empty() {
		return nil
	}

	embedBase := baseEmbed(view, now)
	embedBase.Title = "Download status"
	builder := discord.NewBuilder(baseMessage(view), embedBase)

	var description strings.Builder
	var cleanup []string

	for _, file := range result.Success {
		fmt.Fprintf(&description, "Success: [%s](%s)\n", file.Name, file.URL)
		if file.Size >= discord.FileLimit {
			continue
		}
		path := file.Path
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			archive, err := compress.ZipPath(path)
			if err != nil {
				logger.Logger.Printf("[WARN] Cannot compress %s for attachment: %v", file.Name, err)
				continue
			}
			path = archive
			cleanup = append(cleanup, archive)
		}
		// Zipped directories attach under the archive's name, not the
		// directory's extensionless one.
		if err := builder.AddFilePath(filepath.Base(path), path); err != nil {
			logger.Logger.Printf("[WARN] Cannot attach %s: %v", file.Name, err)
		}
	}
	for _, file := range result.Error {
		fmt.Fprintf(&description, "Failed: [%s](%s)\n", file.Name, file.URL)
	}
	for i, file := range result.Unknown {
		fmt.Fprintf(&description, "Unknown: [file %d](%s)\n", i+1, file.URL)
	}

	builder.AddBody(description.String())

	err := builder.Flush(ctx, webhook)
	for _, path := range cleanup {
		os.Remove(path)
	}
	return err
}

func baseMessage(view *post.View) discord.Message {
	return discord.Message{
		Username:  truncate(view.AuthorName, discord.UsernameLimit),
		AvatarURL: view.AuthorThumbnail,
	}
}

func baseEmbed(view *post.View, now time.Time) discord.Embed {
	title := "Public post"
	if view.Membership {
		title = "Members-only post"
	}
	return discord.Embed{
		Author: &discord.Author{
			Name:    view.AuthorName,
			URL:     view.ChannelURL,
			IconURL: view.AuthorThumbnail,
		},
		Title:     title,
		URL:       view.PostURL,
		Color:     discord.HexColor(accentColor),
		Timestamp: now.Format("2006-01-02 15:04"),
		Footer: &discord.Footer{
			Text:    view.AuthorName,
			IconURL: view.AuthorThumbnail,
		},
	}
}

func videoEmbed(view *post.View, now time.Time) discord.Embed {
	video := view.Video
	return discord.Embed{
		Author: &discord.Author{
			Name:    video.Uploader,
			URL:     video.UploaderChannel,
			IconURL: video.UploaderThumbnail,
		},
		Title:       truncate(video.Title, discord.TitleLimit),
		URL:         video.URL,
		Image:       &discord.EmbedURL{URL: video.Thumbnail},
		Description: truncate(video.Description, discord.DescriptionLimit),
		Color:       discord.HexColor(accentColor),
		Timestamp:   now.Format("2006-01-02") + " 00:00",
		Footer: &discord.Footer{
			Text:    "Video length " + video.Length,
			IconURL: view.AuthorThumbnail,
		},
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := s[:limit]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
