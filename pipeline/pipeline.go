package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/sorane/community-archiver/config"
	"github.com/sorane/community-archiver/db"
	"github.com/sorane/community-archiver/db/models"
	"github.com/sorane/community-archiver/db/repository"
	"github.com/sorane/community-archiver/db/service"
	"github.com/sorane/community-archiver/discord"
	"github.com/sorane/community-archiver/download"
	"github.com/sorane/community-archiver/feed"
	"github.com/sorane/community-archiver/logger"
	"github.com/sorane/community-archiver/notify"
	"github.com/sorane/community-archiver/post"
	"github.com/sorane/community-archiver/translate"
)

// FeedClient fetches raw post payloads for a target URL.
type FeedClient interface {
	Fetch(ctx context.Context, target string) ([]map[string]any, error)
}

// Archive is the per-channel post archive consumed by the pipeline.
type Archive interface {
	SaveNewPost(rec *models.PostRecord) error
	KnownPostIDs() ([]string, error)
	ListByStatus(column models.StatusColumn, status models.Status) ([]*models.PostRecord, error)
	MarkFinished(postID string, column models.StatusColumn) error
}

// Translator translates one text.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// PostSender delivers a post view to a messaging endpoint.
type PostSender interface {
	SendPost(ctx context.Context, view *post.View) error
}

// MediaSender reports a post's media download outcomes.
type MediaSender interface {
	SendMediaStatus(ctx context.Context, view *post.View, result download.Result) error
}

// MediaDownloader performs the file side effects of the record and media
// phases.
type MediaDownloader interface {
	WriteJSON(path string, content map[string]any) error
	SaveAttachments(ctx context.Context, folder, pid string, links []string) error
	DownloadLinks(ctx context.Context, folder string, links []string) download.Result
}

// Deps wires the external collaborators of one channel's pipeline. Nil
// fields disable the corresponding phase.
type Deps struct {
	Feed       FeedClient
	Archive    Archive
	Translator Translator
	Origin     PostSender
	Translated PostSender
	Media      MediaSender
	Downloader MediaDownloader
}

// PhaseSummary counts one phase's per-record outcomes.
type PhaseSummary struct {
	Phase     string
	Attempted int
	Succeeded int
	Failed    int
}

// RunSummary is the outcome of one channel's full pipeline run.
type RunSummary struct {
	Channel string
	Phases  []PhaseSummary
	Err     error
}

// webhookSender adapts a Discord webhook to the sender interfaces, with the
// run timestamp threaded in at construction.
type webhookSender struct {
	webhook *discord.Webhook
	divider string
	now     time.Time
}

func (s *webhookSender) SendPost(ctx context.Context, view *post.View) error {
	return notify.SendPost(ctx, s.webhook, view, s.now, s.divider)
}

func (s *webhookSender) SendMediaStatus(ctx context.Context, view *post.View, result download.Result) error {
	return notify.SendMediaStatus(ctx, s.webhook, view, result, s.now)
}

// fsDownloader is the real filesystem-backed MediaDownloader.
type fsDownloader struct{}

func (fsDownloader) WriteJSON(path string, content map[string]any) error {
	return download.WriteJSON(path, content)
}

func (fsDownloader) SaveAttachments(ctx context.Context, folder, pid string, links []string) error {
	return download.SaveAttachments(ctx, folder, pid, links)
}

func (fsDownloader) DownloadLinks(ctx context.Context, folder string, links []string) download.Result {
	return download.Links(ctx, folder, links)
}

// Run processes every configured channel, strictly sequentially: one
// channel's five phases complete before the next channel starts. A failing
// channel never stops the others.
func Run(ctx context.Context, cfg *config.Config, channels []config.ChannelConfig) []RunSummary {
	now := time.Now()
	summaries := make([]RunSummary, 0, len(channels))

	for _, channel := range channels {
		logger.Logger.Printf("[INFO] [%s] Processing channel: %s", channel.Name, channel.URL)

		station, err := newStation(cfg, channel, now)
		if err != nil {
			logger.Logger.Printf("[ERROR] [%s] Cannot set up channel: %v", channel.Name, err)
			summaries = append(summaries, RunSummary{Channel: channel.Name, Err: err})
			continue
		}

		summary := station.Run(ctx)
		station.Close()
		summaries = append(summaries, summary)

		for _, phase := range summary.Phases {
			logger.Logger.Printf("[INFO] [%s] Phase %s: %d attempted, %d succeeded, %d failed",
				channel.Name, phase.Phase, phase.Attempted, phase.Succeeded, phase.Failed)
		}
		if summary.Err != nil {
			logger.Logger.Printf("[ERROR] [%s] Channel run aborted: %v", channel.Name, summary.Err)
		} else {
			logger.Logger.Printf("[INFO] [%s] Channel run complete", channel.Name)
		}
	}

	if cfg.Options.SystemNotify {
		message := fmt.Sprintf("Processed %d channel(s)", len(summaries))
		if err := beeep.Notify("Community Archiver", message, ""); err != nil {
			logger.Logger.Printf("[WARN] System notification failed: %v", err)
		}
	}

	return summaries
}

// newStation wires the real collaborators for one channel.
func newStation(cfg *config.Config, channel config.ChannelConfig, now time.Time) (*Station, error) {
	feedClient, err := feed.NewClient(channel.Cookies)
	if err != nil {
		return nil, err
	}

	deps := Deps{
		Feed:       feedClient,
		Downloader: fsDownloader{},
	}

	var database *db.Database
	if channel.EnableArchive && channel.ArchiveOutput != "" {
		database, err = db.NewDatabase(channel.ArchiveOutput)
		if err != nil {
			return nil, err
		}
		repo, err := repository.NewPostRepository(database, channel.Name)
		if err != nil {
			database.Close()
			return nil, err
		}
		deps.Archive = service.NewArchiveService(repo)
	}

	if channel.OriginalWebhook != "" {
		deps.Origin = &webhookSender{
			webhook: discord.NewWebhook(channel.OriginalWebhook),
			divider: cfg.Options.DividerImage,
			now:     now,
		}
	}
	if channel.EnableTranslate && channel.TranslateAPIKey != "" && channel.TranslatedWebhook != "" {
		deps.Translator = translate.NewClient(channel.TranslateAPIKey, channel.TranslateModel, channel.TranslatePrompt)
		deps.Translated = &webhookSender{
			webhook: discord.NewWebhook(channel.TranslatedWebhook),
			divider: cfg.Options.DividerImage,
			now:     now,
		}
	}
	if channel.MediaWebhook != "" {
		deps.Media = &webhookSender{
			webhook: discord.NewWebhook(channel.MediaWebhook),
			now:     now,
		}
	}

	station := NewStation(channel, deps, now)
	station.database = database
	return station, nil
}
