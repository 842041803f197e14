package repository

import (
	"fmt"

	"github.com/sorane/community-archiver/db"
	"github.com/sorane/community-archiver/db/models"
	"gorm.io/gorm"
)

// PostRepository defines the storage operations of one channel's archive
// table.
type PostRepository interface {
	Insert(rec *models.PostRecord) error
	PostIDs() ([]string, error)
	RowsByStatus(column models.StatusColumn, status models.Status) ([]models.PostRow, error)
	SetStatus(postID string, column models.StatusColumn, status models.Status) error
}

// GormPostRepository implements PostRepository on a GORM sqlite table.
type GormPostRepository struct {
	db    *gorm.DB
	table string
}

// NewPostRepository binds a repository to the sanitized table for one
// channel, creating or migrating the table as needed. Creation is
// idempotent.
func NewPostRepository(database *db.Database, table string) (PostRepository, error) {
	table = db.SanitizeTableName(table)
	if table == "" {
		return nil, &db.StoreError{Op: "create", Err: fmt.Errorf("empty table name")}
	}
	if err := database.MigrateLegacy(table); err != nil {
		return nil, err
	}
	if err := database.DB.Table(table).AutoMigrate(&models.PostRow{}); err != nil {
		return nil, &db.StoreError{Op: "create", Err: err}
	}
	return &GormPostRepository{db: database.DB, table: table}, nil
}

// Insert appends a new row; the store assigns the sequence id. Duplicate
// post ids are not rejected here, the orchestration layer filters known ids
// before inserting.
func (r *GormPostRepository) Insert(rec *models.PostRecord) error {
	row, err := rec.Row()
	if err != nil {
		return &db.StoreError{Op: "insert", Err: err}
	}
	if err := r.db.Table(r.table).Create(row).Error; err != nil {
		return &db.StoreError{Op: "insert", Err: err}
	}
	rec.ID = row.ID
	return nil
}

// PostIDs projects the pid column of the whole table in insert order.
func (r *GormPostRepository) PostIDs() ([]string, error) {
	var ids []string
	err := r.db.Table(r.table).Order("id").Pluck("pid", &ids).Error
	if err != nil {
		return nil, &db.StoreError{Op: "read pids", Err: err}
	}
	return ids, nil
}

// RowsByStatus returns every stored row whose status column equals the
// given value, in insert order. Rows come back undecoded so one corrupt row
// cannot abort the read; the service layer decodes each row individually.
func (r *GormPostRepository) RowsByStatus(column models.StatusColumn, status models.Status) ([]models.PostRow, error) {
	if !column.Valid() {
		return nil, &db.StoreError{Op: "read", Err: fmt.Errorf("invalid status column %q", column)}
	}
	var rows []models.PostRow
	err := r.db.Table(r.table).
		Where(fmt.Sprintf("%s = ?", column), models.EncodeStatus(status)).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, &db.StoreError{Op: "read", Err: err}
	}
	return rows, nil
}

// SetStatus writes one status column of the row(s) matching postID.
// Fire-and-forget: the affected-row count is not reported, pid is unique by
// construction.
func (r *GormPostRepository) SetStatus(postID string, column models.StatusColumn, status models.Status) error {
	if !column.Valid() {
		return &db.StoreError{Op: "update", Err: fmt.Errorf("invalid status column %q", column)}
	}
	err := r.db.Table(r.table).
		Where("pid = ?", postID).
		Update(string(column), models.EncodeStatus(status)).Error
	if err != nil {
		return &db.StoreError{Op: "update", Err: err}
	}
	return nil
}
