package service

import (
	"github.com/sorane/community-archiver/db/models"
	"github.com/sorane/community-archiver/db/repository"
	"github.com/sorane/community-archiver/logger"
)

// ArchiveService handles archive operations for one channel, isolating
// per-row decode failures so a corrupt row never takes down a whole read.
type ArchiveService struct {
	repo repository.PostRepository
}

// NewArchiveService creates a new archive service.
func NewArchiveService(repo repository.PostRepository) *ArchiveService {
	return &ArchiveService{repo: repo}
}

// SaveNewPost inserts a freshly fetched post record.
func (s *ArchiveService) SaveNewPost(rec *models.PostRecord) error {
	return s.repo.Insert(rec)
}

// KnownPostIDs returns every post id already archived.
func (s *ArchiveService) KnownPostIDs() ([]string, error) {
	return s.repo.PostIDs()
}

// ListByStatus returns every record whose status column equals the given
// value. Rows that fail to decode are logged with their post id and
// skipped.
func (s *ArchiveService) ListByStatus(column models.StatusColumn, status models.Status) ([]*models.PostRecord, error) {
	rows, err := s.repo.RowsByStatus(column, status)
	if err != nil {
		return nil, err
	}
	records := make([]*models.PostRecord, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].Record()
		if err != nil {
			logger.Logger.Printf("[ERROR] [PID:%s] Skipping corrupt archive row: %v", rows[i].PostID, err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// MarkFinished commits a stage's completion for one post. Called only after
// the stage's side effect has been confirmed.
func (s *ArchiveService) MarkFinished(postID string, column models.StatusColumn) error {
	logger.Logger.Printf("[INFO] [PID:%s] Marking %s finished", postID, column)
	return s.repo.SetStatus(postID, column, models.Finished)
}
