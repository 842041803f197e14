package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/sorane/community-archiver/config"
	"github.com/sorane/community-archiver/db"
	"github.com/sorane/community-archiver/db/models"
	"github.com/sorane/community-archiver/logger"
	"github.com/sorane/community-archiver/post"
)

// Station runs the five pipeline phases for one channel. Phases never roll
// each other back: a failed record keeps its NOT_PROCESSED flag and is
// retried on the next invocation.
type Station struct {
	cfg  config.ChannelConfig
	deps Deps

	now       time.Time
	fetchTime string // capture date, used as the archive fetch_time and the post output folder

	// pending holds the records inserted during this run; it doubles as
	// the working set when no archive is configured.
	pending []*models.PostRecord

	database *db.Database
}

// NewStation builds a station with the run timestamp captured once and
// threaded into every record and message it produces.
func NewStation(cfg config.ChannelConfig, deps Deps, now time.Time) *Station {
	return &Station{
		cfg:       cfg,
		deps:      deps,
		now:       now,
		fetchTime: now.Format("20060102"),
	}
}

// Close releases the archive connection, if any.
func (s *Station) Close() {
	if s.database != nil {
		s.database.Close()
	}
}

// Run executes the phases in order. Fetch and whole-table store failures
// abort the remaining phases of this channel only; everything else is
// isolated per record.
func (s *Station) Run(ctx context.Context) RunSummary {
	summary := RunSummary{Channel: s.cfg.Name}

	if err := s.FetchPosts(ctx); err != nil {
		summary.Err = err
		return summary
	}

	phases := []func(context.Context) (PhaseSummary, error){
		s.RecordPosts,
		s.NotifyOrigin,
		s.NotifyTranslated,
		s.DownloadMedia,
	}
	for _, phase := range phases {
		phaseSummary, err := phase(ctx)
		summary.Phases = append(summary.Phases, phaseSummary)
		if err != nil {
			summary.Err = err
			return summary
		}
	}
	return summary
}

// FetchPosts is phase 1: fetch the channel feed, drop every post the
// archive already knows, and keep the rest as pending new records.
func (s *Station) FetchPosts(ctx context.Context) error {
	payloads, err := s.deps.Feed.Fetch(ctx, s.cfg.URL)
	if err != nil {
		return err
	}

	known := make(map[string]bool)
	if s.deps.Archive != nil {
		ids, err := s.deps.Archive.KnownPostIDs()
		if err != nil {
			return err
		}
		for _, id := range ids {
			known[id] = true
		}
	}

	for _, payload := range payloads {
		view := post.Parse(payload)
		if view.PostID == "" {
			logger.Logger.Printf("[WARN] [%s] Skipping payload without a post id", s.cfg.Name)
			continue
		}
		if known[view.PostID] {
			continue
		}
		known[view.PostID] = true
		s.pending = append(s.pending, &models.PostRecord{
			PostID:     view.PostID,
			FetchTime:  s.fetchTime,
			RawContent: payload,
			Links:      post.AllLinks(view),
			Membership: models.StatusFromBool(view.Membership),
		})
	}
	logger.Logger.Printf("[INFO] [%s] New posts: %d", s.cfg.Name, len(s.pending))
	return nil
}

// RecordPosts is phase 2: archive every pending record and, when a post
// output is configured, store the raw payload as a JSON file plus its
// original-resolution attachment images. The JSON write skips existing
// files, so the phase is safe to re-run.
func (s *Station) RecordPosts(ctx context.Context) (PhaseSummary, error) {
	summary := PhaseSummary{Phase: "record"}
	if s.deps.Archive == nil && !s.cfg.EnablePosts {
		logger.Logger.Printf("[INFO] [%s] No archive or post output configured, skipping record phase", s.cfg.Name)
		return summary, nil
	}

	for _, rec := range s.pending {
		summary.Attempted++
		if err := s.recordOne(ctx, rec); err != nil {
			summary.Failed++
			logger.Logger.Printf("[ERROR] [%s] [PID:%s] Recording post: %v", s.cfg.Name, rec.PostID, err)
			continue
		}
		summary.Succeeded++
	}
	return summary, nil
}

func (s *Station) recordOne(ctx context.Context, rec *models.PostRecord) error {
	if s.deps.Archive != nil {
		if err := s.deps.Archive.SaveNewPost(rec); err != nil {
			return err
		}
		logger.Logger.Printf("[INFO] [%s] Recorded post: %s", s.cfg.Name, rec.PostID)
	}

	if s.cfg.EnablePosts && s.cfg.PostOutput != "" {
		folder := filepath.Join(s.cfg.PostOutput, rec.FetchTime)
		if err := s.deps.Downloader.WriteJSON(filepath.Join(folder, rec.PostID+".json"), rec.RawContent); err != nil {
			return err
		}
		logger.Logger.Printf("[INFO] [%s] Stored post file: %s", s.cfg.Name, rec.PostID)
		if err := s.deps.Downloader.SaveAttachments(ctx, folder, rec.PostID, rec.Links); err != nil {
			return err
		}
	}
	return nil
}

// NotifyOrigin is phase 3: deliver every not-yet-notified record to the
// origin endpoint, marking each one finished only after its delivery
// succeeded.
func (s *Station) NotifyOrigin(ctx context.Context) (PhaseSummary, error) {
	summary := PhaseSummary{Phase: "origin notify"}
	if s.deps.Origin == nil {
		return summary, nil
	}

	working, err := s.workingSet(models.ColOriginNotify)
	if err != nil {
		return summary, err
	}
	logger.Logger.Printf("[INFO] [%s] Posts awaiting origin notify: %d", s.cfg.Name, len(working))

	for _, rec := range working {
		summary.Attempted++
		view := post.Parse(rec.RawContent)
		if err := s.deps.Origin.SendPost(ctx, view); err != nil {
			summary.Failed++
			logger.Logger.Printf("[ERROR] [%s] [PID:%s] Origin notify failed: %v", s.cfg.Name, rec.PostID, err)
			continue
		}
		if err := s.markFinished(rec, models.ColOriginNotify); err != nil {
			summary.Failed++
			logger.Logger.Printf("[ERROR] [%s] [PID:%s] Committing origin notify: %v", s.cfg.Name, rec.PostID, err)
			continue
		}
		summary.Succeeded++
	}
	return summary, nil
}

// NotifyTranslated is phase 4: translate each pending record's body (and
// video description) and deliver the translated view. Translation mutates
// only the in-memory view, never the archived payload.
func (s *Station) NotifyTranslated(ctx context.Context) (PhaseSummary, error) {
	summary := PhaseSummary{Phase: "translate notify"}
	if !s.cfg.EnableTranslate || s.deps.Translator == nil || s.deps.Translated == nil {
		return summary, nil
	}

	working, err := s.workingSet(models.ColTranslateNotify)
	if err != nil {
		return summary, err
	}
	logger.Logger.Printf("[INFO] [%s] Posts awaiting translate notify: %d", s.cfg.Name, len(working))

	for _, rec := range working {
		summary.Attempted++
		if err := s.translateOne(ctx, rec); err != nil {
			summary.Failed++
			logger.Logger.Printf("[ERROR] [%s] [PID:%s] Translate notify failed: %v", s.cfg.Name, rec.PostID, err)
			continue
		}
		summary.Succeeded++
	}
	return summary, nil
}

func (s *Station) translateOne(ctx context.Context, rec *models.PostRecord) error {
	view := post.Parse(rec.RawContent)

	translated, err := s.deps.Translator.Translate(ctx, view.ContentText)
	if err != nil {
		return err
	}
	view.ContentText = translated

	if view.Video != nil && view.Video.Description != "" {
		description, err := s.deps.Translator.Translate(ctx, view.Video.Description)
		if err != nil {
			return err
		}
		view.Video.Description = description
	}

	if err := s.deps.Translated.SendPost(ctx, view); err != nil {
		return err
	}
	return s.markFinished(rec, models.ColTranslateNotify)
}

// DownloadMedia is phase 5: download every link of each pending record and
// mark the record finished only when no download came back as a hard
// failure. Unknown outcomes (no determinable filename) do not block.
func (s *Station) DownloadMedia(ctx context.Context) (PhaseSummary, error) {
	summary := PhaseSummary{Phase: "media download"}
	if !s.cfg.EnableMedia || s.cfg.MediaOutput == "" {
		return summary, nil
	}

	working, err := s.workingSet(models.ColMediaDownload)
	if err != nil {
		return summary, err
	}
	logger.Logger.Printf("[INFO] [%s] Posts awaiting media download: %d", s.cfg.Name, len(working))

	for _, rec := range working {
		summary.Attempted++

		result := s.deps.Downloader.DownloadLinks(ctx, s.cfg.MediaOutput, rec.Links)
		if !result.Empty() {
			logger.Logger.Printf("[INFO] [%s] [PID:%s] Downloads: %d succeeded, %d failed, %d unknown",
				s.cfg.Name, rec.PostID, len(result.Success), len(result.Error), len(result.Unknown))
		}

		failed := false
		if len(result.Error) == 0 {
			if err := s.markFinished(rec, models.ColMediaDownload); err != nil {
				failed = true
				logger.Logger.Printf("[ERROR] [%s] [PID:%s] Committing media download: %v", s.cfg.Name, rec.PostID, err)
			}
		} else {
			failed = true
			for _, file := range result.Error {
				logger.Logger.Printf("[ERROR] [%s] [PID:%s] Download failed: %s", s.cfg.Name, rec.PostID, file.URL)
			}
		}
		for _, file := range result.Unknown {
			logger.Logger.Printf("[WARN] [%s] [PID:%s] Unknown filename, verify download manually: %s", s.cfg.Name, rec.PostID, file.URL)
		}

		if s.deps.Media != nil {
			if err := s.deps.Media.SendMediaStatus(ctx, post.Parse(rec.RawContent), result); err != nil {
				logger.Logger.Printf("[ERROR] [%s] [PID:%s] Media status notify failed: %v", s.cfg.Name, rec.PostID, err)
			}
		}

		if failed {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary, nil
}

// workingSet selects the records whose given stage is still unprocessed:
// an archive query when archiving is on, otherwise the records fetched in
// this run.
func (s *Station) workingSet(column models.StatusColumn) ([]*models.PostRecord, error) {
	if s.deps.Archive == nil {
		return s.pending, nil
	}
	return s.deps.Archive.ListByStatus(column, models.NotProcessed)
}

// markFinished commits a stage transition for one record. Without an
// archive the flag only lives on the in-memory record.
func (s *Station) markFinished(rec *models.PostRecord, column models.StatusColumn) error {
	if s.deps.Archive != nil {
		if err := s.deps.Archive.MarkFinished(rec.PostID, column); err != nil {
			return err
		}
	}
	switch column {
	case models.ColOriginNotify:
		rec.OriginNotify = models.Finished
	case models.ColTranslateNotify:
		rec.TranslateNotify = models.Finished
	case models.ColMediaDownload:
		rec.MediaDownload = models.Finished
	}
	return nil
}
