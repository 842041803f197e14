package service

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorane/community-archiver/db"
	"github.com/sorane/community-archiver/db/models"
	"github.com/sorane/community-archiver/db/repository"
)

func openTestService(t *testing.T) (*ArchiveService, *db.Database) {
	t.Helper()

	database, err := db.NewDatabase(filepath.Join(t.TempDir(), "archive.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	repo, err := repository.NewPostRepository(database, "channel")
	require.NoError(t, err)
	return NewArchiveService(repo), database
}

func TestArchiveService_SaveAndList(t *testing.T) {
	svc, _ := openTestService(t)

	require.NoError(t, svc.SaveNewPost(&models.PostRecord{
		PostID:     "UgxA",
		FetchTime:  "20260829",
		RawContent: map[string]any{"post_id": "UgxA"},
		Links:      []string{"https://example.com/a"},
		Membership: models.Finished,
	}))

	ids, err := svc.KnownPostIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"UgxA"}, ids)

	records, err := svc.ListByStatus(models.ColOriginNotify, models.NotProcessed)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "UgxA", records[0].PostID)
	assert.Equal(t, models.Finished, records[0].Membership)
	assert.Equal(t, map[string]any{"post_id": "UgxA"}, records[0].RawContent)
	assert.Equal(t, []string{"https://example.com/a"}, records[0].Links)
}

func TestArchiveService_MarkFinished(t *testing.T) {
	svc, _ := openTestService(t)

	require.NoError(t, svc.SaveNewPost(&models.PostRecord{PostID: "UgxA"}))
	require.NoError(t, svc.MarkFinished("UgxA", models.ColOriginNotify))

	waiting, err := svc.ListByStatus(models.ColOriginNotify, models.NotProcessed)
	require.NoError(t, err)
	assert.Empty(t, waiting)

	// the other stages are untouched
	media, err := svc.ListByStatus(models.ColMediaDownload, models.NotProcessed)
	require.NoError(t, err)
	assert.Len(t, media, 1)
}

func TestArchiveService_CorruptRowIsSkipped(t *testing.T) {
	svc, database := openTestService(t)

	require.NoError(t, svc.SaveNewPost(&models.PostRecord{PostID: "UgxGood"}))
	require.NoError(t, database.DB.Exec(`INSERT INTO channel
        (pid, fetch_time, raw_content, links, membership, origin_notify, translate_notify, media_download)
        VALUES ('UgxBad', '20260829', '{not json', '[]', '0', '0', '0', '0')`).Error)

	records, err := svc.ListByStatus(models.ColOriginNotify, models.NotProcessed)
	require.NoError(t, err)
	require.Len(t, records, 1, "the corrupt row is skipped, not fatal")
	assert.Equal(t, "UgxGood", records[0].PostID)
}
