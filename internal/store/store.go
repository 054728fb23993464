package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/filegrab/filegrab/internal/model"
)

// DBFileName is the name of the SQLite database file inside the state
// directory.
const DBFileName = "filegrab.db"

// Store provides SQLite-based persistence for per-URL download records.
//
// Design decision: We use a single database file with one table rather
// than a per-run file. The whole point of the store is that records
// outlive individual runs, so the decision engine can compare live server
// metadata against what a previous run saw.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging. Recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default store options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a Store at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is
// returned.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("state database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to refuse creating new files and
	// mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The crawl is strictly single-writer and reads its own writes, so one
	// connection is all we need. SQLite only supports one writer anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	// Every upsert must be durable before it returns: a crash right after
	// a decision must not silently lose the last known status.
	if _, err := db.ExecContext(context.Background(), "PRAGMA synchronous=FULL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the path of the underlying database file.
func (s *Store) Path() string {
	return s.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- One row per unique downloadable URL encountered.
	CREATE TABLE IF NOT EXISTS files (
		url TEXT PRIMARY KEY,
		filename TEXT,
		local_path TEXT,
		status TEXT,
		etag TEXT,
		last_modified TEXT,
		last_checked TEXT,
		last_downloaded TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_files_status ON files(status);
	CREATE INDEX IF NOT EXISTS idx_files_last_checked ON files(last_checked);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Fields holds a partial update for a record. Nil fields are left at their
// stored values; only non-nil fields are written. This is the
// merge-by-presence contract: no field is ever overwritten with an
// absent value.
type Fields struct {
	Filename       *string
	LocalPath      *string
	Status         *model.Status
	ETag           *string
	LastModified   *string
	LastChecked    *time.Time
	LastDownloaded *time.Time
}

// String returns a pointer to s, for use in Fields literals.
func String(s string) *string { return &s }

// StatusOf returns a pointer to st, for use in Fields literals.
func StatusOf(st model.Status) *model.Status { return &st }

// TimeOf returns a pointer to t, for use in Fields literals.
func TimeOf(t time.Time) *time.Time { return &t }

// Upsert creates or partially updates the record for url.
// If no record exists, one is created with the supplied fields and the
// rest left NULL. If a record exists, only the supplied fields are
// overwritten; everything else keeps its stored value.
//
// The write is committed before Upsert returns (synchronous=FULL), so a
// later read in the same traversal always sees it.
func (s *Store) Upsert(ctx context.Context, url string, f Fields) error {
	query := `
	INSERT INTO files (url, filename, local_path, status, etag, last_modified, last_checked, last_downloaded)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		filename        = COALESCE(excluded.filename, filename),
		local_path      = COALESCE(excluded.local_path, local_path),
		status          = COALESCE(excluded.status, status),
		etag            = COALESCE(excluded.etag, etag),
		last_modified   = COALESCE(excluded.last_modified, last_modified),
		last_checked    = COALESCE(excluded.last_checked, last_checked),
		last_downloaded = COALESCE(excluded.last_downloaded, last_downloaded)
	`

	var status *string
	if f.Status != nil {
		status = String(string(*f.Status))
	}

	_, err := s.db.ExecContext(ctx, query,
		url,
		f.Filename,
		f.LocalPath,
		status,
		f.ETag,
		f.LastModified,
		formatTime(f.LastChecked),
		formatTime(f.LastDownloaded),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert record for %s: %w", url, err)
	}

	return nil
}

// Get retrieves the record for url. It returns (nil, nil) when no record
// exists.
func (s *Store) Get(ctx context.Context, url string) (*model.Record, error) {
	query := `
	SELECT url, filename, local_path, status, etag, last_modified, last_checked, last_downloaded
	FROM files
	WHERE url = ?
	`

	row := s.db.QueryRowContext(ctx, query, url)
	rec, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record for %s: %w", url, err)
	}

	return rec, nil
}

// Summary holds aggregate counts over all tracked records.
type Summary struct {
	// Total is the number of tracked URLs.
	Total int

	// Downloaded, Failed, Skipped, and Pending count records by status.
	Downloaded int
	Failed     int
	Skipped    int
	Pending    int
}

// Summarize returns aggregate counts over the files table.
func (s *Store) Summarize(ctx context.Context) (*Summary, error) {
	query := `
	SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status = 'downloaded'),
		COUNT(*) FILTER (WHERE status = 'failed'),
		COUNT(*) FILTER (WHERE status = 'skipped'),
		COUNT(*) FILTER (WHERE status = 'pending')
	FROM files
	`

	var sum Summary
	err := s.db.QueryRowContext(ctx, query).Scan(
		&sum.Total,
		&sum.Downloaded,
		&sum.Failed,
		&sum.Skipped,
		&sum.Pending,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize records: %w", err)
	}

	return &sum, nil
}

// Recent returns up to limit records ordered by most recent check.
func (s *Store) Recent(ctx context.Context, limit int) ([]*model.Record, error) {
	query := `
	SELECT url, filename, local_path, status, etag, last_modified, last_checked, last_downloaded
	FROM files
	ORDER BY last_checked DESC
	LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent records: %w", err)
	}
	defer rows.Close()

	var records []*model.Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// scanRecord scans a files row into a Record via the given scan function.
// NULL columns map to zero values.
func scanRecord(scan func(dest ...any) error) (*model.Record, error) {
	var (
		rec            model.Record
		filename       sql.NullString
		localPath      sql.NullString
		status         sql.NullString
		etag           sql.NullString
		lastModified   sql.NullString
		lastChecked    sql.NullString
		lastDownloaded sql.NullString
	)

	err := scan(
		&rec.URL,
		&filename,
		&localPath,
		&status,
		&etag,
		&lastModified,
		&lastChecked,
		&lastDownloaded,
	)
	if err != nil {
		return nil, err
	}

	rec.Filename = filename.String
	rec.LocalPath = localPath.String
	rec.Status = model.Status(status.String)
	rec.ETag = etag.String
	rec.LastModified = lastModified.String
	rec.LastChecked = parseTimestamp(lastChecked.String)
	rec.LastDownloaded = parseTimestamp(lastDownloaded.String)

	return &rec, nil
}

// formatTime renders a timestamp for storage, or nil for absent values.
// All timestamps are stored as RFC 3339 UTC strings so they sort lexically.
func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

// timestampFormats contains the timestamp formats we may encounter.
// We write RFC 3339, but databases touched by older builds may hold the
// SQLite default datetime format.
var timestampFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp attempts to parse a stored timestamp using multiple
// formats. An empty or unparseable value returns the zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
