package repository

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorane/community-archiver/db"
	"github.com/sorane/community-archiver/db/models"
)

func openTestRepo(t *testing.T, table string) (PostRepository, *db.Database) {
	t.Helper()

	database, err := db.NewDatabase(filepath.Join(t.TempDir(), "archive.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	repo, err := NewPostRepository(database, table)
	require.NoError(t, err)
	return repo, database
}

func record(pid string) *models.PostRecord {
	return &models.PostRecord{
		PostID:     pid,
		FetchTime:  "20260829",
		RawContent: map[string]any{"post_id": pid},
		Links:      []string{"https://example.com/" + pid},
	}
}

func TestNewPostRepository_SanitizesTableName(t *testing.T) {
	repo, _ := openTestRepo(t, `my-channel (JP) "2"`)

	require.NoError(t, repo.Insert(record("Ugx1")))
	ids, err := repo.PostIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"Ugx1"}, ids)
}

func TestNewPostRepository_EmptyTableName(t *testing.T) {
	database, err := db.NewDatabase(filepath.Join(t.TempDir(), "archive.sqlite"))
	require.NoError(t, err)
	defer database.Close()

	_, err = NewPostRepository(database, "---")
	assert.Error(t, err)
}

func TestInsertAndPostIDs(t *testing.T) {
	repo, _ := openTestRepo(t, "channel")

	for _, pid := range []string{"UgxA", "UgxB", "UgxC"} {
		require.NoError(t, repo.Insert(record(pid)))
	}

	ids, err := repo.PostIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"UgxA", "UgxB", "UgxC"}, ids, "insert order is preserved")
}

func TestInsert_AssignsSequenceID(t *testing.T) {
	repo, _ := openTestRepo(t, "channel")

	first := record("UgxA")
	second := record("UgxB")
	require.NoError(t, repo.Insert(first))
	require.NoError(t, repo.Insert(second))

	assert.NotZero(t, first.ID)
	assert.Greater(t, second.ID, first.ID)
}

func TestRowsByStatus(t *testing.T) {
	repo, _ := openTestRepo(t, "channel")

	require.NoError(t, repo.Insert(record("UgxA")))
	require.NoError(t, repo.Insert(record("UgxB")))
	require.NoError(t, repo.SetStatus("UgxA", models.ColOriginNotify, models.Finished))

	waiting, err := repo.RowsByStatus(models.ColOriginNotify, models.NotProcessed)
	require.NoError(t, err)
	require.Len(t, waiting, 1)
	assert.Equal(t, "UgxB", waiting[0].PostID)

	done, err := repo.RowsByStatus(models.ColOriginNotify, models.Finished)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, "UgxA", done[0].PostID)

	// other columns are untouched
	media, err := repo.RowsByStatus(models.ColMediaDownload, models.NotProcessed)
	require.NoError(t, err)
	assert.Len(t, media, 2)
}

func TestRowsByStatus_InvalidColumn(t *testing.T) {
	repo, _ := openTestRepo(t, "channel")

	_, err := repo.RowsByStatus(models.StatusColumn("pid"), models.NotProcessed)
	require.Error(t, err)

	var storeErr *db.StoreError
	assert.ErrorAs(t, err, &storeErr)
}

func TestSetStatus_InvalidColumn(t *testing.T) {
	repo, _ := openTestRepo(t, "channel")

	err := repo.SetStatus("Ugx", models.StatusColumn("pid; DROP TABLE channel"), models.Finished)
	assert.Error(t, err)
}

func TestSetStatus_UnknownPIDIsNoop(t *testing.T) {
	repo, _ := openTestRepo(t, "channel")

	require.NoError(t, repo.Insert(record("UgxA")))
	require.NoError(t, repo.SetStatus("UgxMissing", models.ColOriginNotify, models.Finished))

	waiting, err := repo.RowsByStatus(models.ColOriginNotify, models.NotProcessed)
	require.NoError(t, err)
	assert.Len(t, waiting, 1)
}

func TestNewPostRepository_Reopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archive.sqlite")

	database, err := db.NewDatabase(path)
	require.NoError(t, err)
	repo, err := NewPostRepository(database, "channel")
	require.NoError(t, err)
	require.NoError(t, repo.Insert(record("UgxA")))
	require.NoError(t, database.Close())

	database, err = db.NewDatabase(path)
	require.NoError(t, err)
	defer database.Close()
	repo, err = NewPostRepository(database, "channel")
	require.NoError(t, err)

	ids, err := repo.PostIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"UgxA"}, ids, "reopening keeps existing rows")
}
