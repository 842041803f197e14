package post

import (
	"strings"

	"github.com/sorane/community-archiver/utils"
)

const siteRoot = "https://www.youtube.com"

// Video is the projection of a video attached to a community post.
type Video struct {
	URL               string
	Title             string
	Description       string
	Thumbnail         string
	Membership        bool
	Length            string
	Uploader          string
	UploaderChannel   string
	UploaderThumbnail string
}

// View is the normalized, re-derivable projection of one raw post payload.
// It is recomputed from the archived payload every time a stage needs it and
// is never persisted, so a stage mutating it (e.g. translation) never
// touches the archived original.
type View struct {
	PostID          string
	ChannelURL      string
	PostURL         string
	AuthorName      string
	AuthorThumbnail string
	ContentText     string
	Video           *Video
	Attachments     []string
	ContentLinks    []string
	Membership      bool
}

// Parse extracts a View from a raw feed payload. Every lookup tolerates
// missing or misshapen fields and falls back to a zero value.
func Parse(raw map[string]any) *View {
	v := &View{
		PostID:          utils.GetString(raw, []any{"post_id"}, ""),
		AuthorName:      utils.GetString(raw, []any{"author", "authorText", "runs", 0, "text"}, ""),
		AuthorThumbnail: utils.GetString(raw, []any{"author", "authorThumbnail", "thumbnails", -1, "url"}, ""),
		Membership:      badgeLabel(utils.GetMap(raw, []any{"sponsor_only_badge", "sponsorsOnlyBadgeRenderer"})) != "",
	}
	v.PostURL = siteRoot + "/post/" + v.PostID
	if channelID := utils.GetString(raw, []any{"channel_id"}, ""); channelID != "" {
		v.ChannelURL = siteRoot + "/channel/" + channelID
	}

	runs := utils.GetList(raw, []any{"content_text", "runs"})
	v.ContentText = textFromRuns(runs)
	v.ContentLinks = linksFromRuns(runs)
	v.Attachments = parseAttachments(raw)
	v.Video = parseVideo(raw)
	return v
}

// textFromRuns concatenates the rich-text runs of a post body. A run with a
// direct URL endpoint contributes the raw URL, a run with an internal browse
// endpoint becomes a markdown link resolved against the site root, and a
// plain run contributes its literal text.
func textFromRuns(runs []any) string {
	var sb strings.Builder
	for _, run := range runs {
		text := utils.GetString(run, []any{"text"}, "")
		if url := utils.GetString(run, []any{"navigationEndpoint", "urlEndpoint", "url"}, ""); url != "" {
			sb.WriteString(url)
			continue
		}
		if utils.GetMap(run, []any{"navigationEndpoint", "browseEndpoint"}) != nil {
			url := utils.GetString(run, []any{"navigationEndpoint", "commandMetadata", "webCommandMetadata", "url"}, "")
			if url == "" {
				url = utils.GetString(run, []any{"navigationEndpoint", "browseEndpoint", "canonicalBaseUrl"}, "")
			}
			if strings.HasPrefix(url, "/") {
				url = utils.JoinURL(siteRoot, url)
			}
			sb.WriteString("[" + text + "](" + url + ")")
			continue
		}
		sb.WriteString(text)
	}
	return sb.String()
}

// linksFromRuns collects every run's direct URL endpoint. A run's literal
// text also counts as a link when the run carries logging directives and the
// text is an http(s) URL; the feed surfaces some link types only that way.
func linksFromRuns(runs []any) []string {
	var links []string
	for _, run := range runs {
		if url := utils.GetString(run, []any{"navigationEndpoint", "urlEndpoint", "url"}, ""); url != "" {
			links = append(links, url)
			continue
		}
		if utils.GetMap(run, []any{"loggingDirectives"}) == nil {
			continue
		}
		text := utils.GetString(run, []any{"text"}, "")
		if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
			links = append(links, text)
		}
	}
	return links
}

// parseAttachments probes the single-image slot first, then appends every
// image of the multi-image slot. The single slot always yields one entry,
// which is blank when no image is attached; downstream consumers filter
// blanks.
func parseAttachments(raw map[string]any) []string {
	attachment := utils.GetMap(raw, []any{"backstage_attachment"})

	single := utils.GetString(attachment, []any{"backstageImageRenderer", "image", "thumbnails", -1, "url"}, "")
	attachments := []string{utils.OriginImageURL(single)}

	for _, image := range utils.GetList(attachment, []any{"postMultiImageRenderer", "images"}) {
		url := utils.GetString(image, []any{"backstageImageRenderer", "image", "thumbnails", -1, "url"}, "")
		if url != "" {
			attachments = append(attachments, utils.OriginImageURL(url))
		}
	}
	return attachments
}

func parseVideo(raw map[string]any) *Video {
	renderer := utils.GetMap(raw, []any{"backstage_attachment", "videoRenderer"})
	videoID := utils.GetString(renderer, []any{"videoId"}, "")
	if videoID == "" {
		return nil
	}

	var title strings.Builder
	for _, run := range utils.GetList(renderer, []any{"title", "runs"}) {
		title.WriteString(utils.GetString(run, []any{"text"}, ""))
	}

	var description strings.Builder
	for _, run := range utils.GetList(renderer, []any{"descriptionSnippet", "runs"}) {
		description.WriteString(utils.GetString(run, []any{"text"}, ""))
	}

	uploaderChannel := utils.GetString(renderer, []any{"ownerText", "runs", 0, "navigationEndpoint", "browseEndpoint", "canonicalBaseUrl"}, "")
	if strings.HasPrefix(uploaderChannel, "/") {
		uploaderChannel = utils.JoinURL(siteRoot, uploaderChannel)
	}

	return &Video{
		URL:             siteRoot + "/watch?v=" + videoID,
		Title:           strings.ReplaceAll(title.String(), "\n", ""),
		Description:     description.String(),
		Thumbnail:       utils.OriginImageURL(utils.GetString(renderer, []any{"thumbnail", "thumbnails", -1, "url"}, "")),
		Membership:      badgeLabel(utils.GetMap(renderer, []any{"badges", -1, "metadataBadgeRenderer"})) != "",
		Length:          utils.GetString(renderer, []any{"lengthText", "simpleText"}, ""),
		Uploader:        utils.GetString(renderer, []any{"ownerText", "runs", 0, "text"}, ""),
		UploaderChannel: uploaderChannel,
		UploaderThumbnail: utils.OriginImageURL(utils.GetString(renderer,
			[]any{"channelThumbnailSupportedRenderers", "channelThumbnailWithLinkRenderer", "thumbnail", "thumbnails", -1, "url"}, "")),
	}
}

// badgeLabel reads a badge's label whichever of the two renderer shapes the
// feed used.
func badgeLabel(badge map[string]any) string {
	if label := utils.GetString(badge, []any{"label", "simpleText"}, ""); label != "" {
		return label
	}
	if label := utils.GetString(badge, []any{"label", "runs", 0, "text"}, ""); label != "" {
		return label
	}
	return utils.GetString(badge, []any{"label"}, "")
}
