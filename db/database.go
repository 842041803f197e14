package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sorane/community-archiver/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	_ "modernc.org/sqlite"
)

// StoreError wraps an archive store failure with the operation that caused
// it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("archive store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Database wraps the GORM connection to one channel's archive file.
type Database struct {
	DB   *gorm.DB
	path string
}

// NewDatabase opens (creating if needed) the archive file at path.
func NewDatabase(path string) (*Database, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, &StoreError{Op: "create", Err: err}
		}
	}

	logConfig := gormlogger.Config{
		LogLevel: gormlogger.Warn, // Log only warnings and errors
		Colorful: false,
	}

	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.New(logger.Logger, logConfig),
	})
	if err != nil {
		return nil, &StoreError{Op: "open", Err: err}
	}

	return &Database{DB: gdb, path: path}, nil
}

// SanitizeTableName strips characters that are not legal in a storage
// identifier from a channel-derived table name.
func SanitizeTableName(name string) string {
	replacer := strings.NewReplacer(
		"-", "", ",", "", ".", "", `"`, "", "=", "", " ", "", "(", "", ")", "",
	)
	return replacer.Replace(name)
}

// MigrateLegacy rewrites a table created by the predecessor tool into the
// current shape. The old schema carried a stray media_notify column and
// named the capture date and payload columns differently.
func (d *Database) MigrateLegacy(table string) error {
	legacy, err := d.hasLegacySchema(table)
	if err != nil {
		return &StoreError{Op: "schema check", Err: err}
	}
	if !legacy {
		return nil
	}

	logger.Logger.Printf("[INFO] Migrating legacy archive table %q", table)

	steps := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s_new (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            pid TEXT NOT NULL,
            fetch_time TEXT,
            raw_content TEXT,
            links TEXT,
            membership TEXT,
            origin_notify TEXT,
            translate_notify TEXT,
            media_download TEXT
        )`, table),
		fmt.Sprintf(`INSERT INTO %s_new (pid, fetch_time, raw_content, links,
            membership, origin_notify, translate_notify, media_download)
            SELECT pid, time, content, links,
            CAST(membership AS TEXT), CAST(origin_notify AS TEXT),
            CAST(translate_notify AS TEXT), CAST(downloaded AS TEXT)
            FROM %s ORDER BY id`, table, table),
		fmt.Sprintf(`DROP TABLE %s`, table),
		fmt.Sprintf(`ALTER TABLE %s_new RENAME TO %s`, table, table),
	}
	for _, step := range steps {
		if err := d.DB.Exec(step).Error; err != nil {
			return &StoreError{Op: "legacy migration", Err: err}
		}
	}
	return nil
}

// hasLegacySchema probes the table definition through database/sql so a
// half-created GORM session never sees the old shape.
func (d *Database) hasLegacySchema(table string) (bool, error) {
	sqlDB, err := sql.Open("sqlite", d.path)
	if err != nil {
		return false, nil
	}
	defer sqlDB.Close()

	var count int
	err = sqlDB.QueryRow(`SELECT COUNT(*) FROM sqlite_master
                         WHERE type='table' AND name=?
                         AND sql LIKE '%media_notify%'`, table).Scan(&count)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
