package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const (
	currentSchemaVersion = 2
)

// Store represents the catalog's persistent state. Its embedded Queries run
// directly against the database; use Transaction for atomic multi-row writes.
type Store struct {
	*Queries
	db *sql.DB
}

// OpenOptions tunes how the catalog database is opened
type OpenOptions struct {
	NetworkOptimized bool // database lives on NFS/SMB or similar
}

// Open opens or creates a SQLite database at the given path with default options
func Open(path string) (*Store, error) {
	return OpenWithOptions(path, nil)
}

// OpenWithOptions opens or creates a SQLite database with custom options
func OpenWithOptions(path string, opts *OpenOptions) (*Store, error) {
	if opts == nil {
		opts = &OpenOptions{}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite works best with a single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &Store{Queries: &Queries{db: db}, db: db}

	if opts.NetworkOptimized {
		if err := store.applyNetworkPragmas(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply network pragmas: %w", err)
		}
	}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return store, nil
}

// networkPragmas cut fsyncs and temp files on network shares.
// NORMAL synchronous relies on WAL mode.
var networkPragmas = []string{
	"PRAGMA synchronous = NORMAL",
	"PRAGMA temp_store = MEMORY",
	"PRAGMA cache_size = -64000", // KiB
}

func (s *Store) applyNetworkPragmas() error {
	for _, pragma := range networkPragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for custom queries
func (s *Store) DB() *sql.DB {
	return s.db
}

// SQLiteVersion returns the SQLite version string
func SQLiteVersion() string {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return ""
	}
	defer db.Close()

	var version string
	err = db.QueryRow("SELECT sqlite_version()").Scan(&version)
	if err != nil {
		return ""
	}
	return version
}

// CheckIntegrity runs PRAGMA integrity_check on the database
func (s *Store) CheckIntegrity() error {
	var result string
	err := s.db.QueryRow("PRAGMA integrity_check").Scan(&result)
	if err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}

	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}

	return nil
}

// SchemaVersion returns the applied schema version
func (s *Store) SchemaVersion() (int, error) {
	return s.getSchemaVersion()
}

// migrate applies database migrations
func (s *Store) migrate() error {
	version, err := s.getSchemaVersion()
	if err != nil {
		return err
	}

	if version >= currentSchemaVersion {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Apply schema v1
	if version < 1 {
		if _, err := tx.Exec(schemaV1); err != nil {
			return fmt.Errorf("failed to apply schema v1: %w", err)
		}
		if err := s.setSchemaVersion(tx, 1); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}

	// Apply schema v2 - lookup indexes
	if version < 2 {
		if _, err := tx.Exec(schemaV2); err != nil {
			return fmt.Errorf("failed to apply schema v2: %w", err)
		}
		if err := s.setSchemaVersion(tx, 2); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	return nil
}

// getSchemaVersion returns the current schema version
func (s *Store) getSchemaVersion() (int, error) {
	var exists int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&exists)
	if err != nil {
		return 0, err
	}

	if exists == 0 {
		// No schema yet
		return 0, nil
	}

	var version int
	err = s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, err
	}

	return version, nil
}

// setSchemaVersion records a schema version in a transaction
func (s *Store) setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

// Transaction executes fn within a transaction. fn must only use the
// Queries it is given: the pool holds a single connection.
func (s *Store) Transaction(ctx context.Context, fn func(*Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Queries{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Console is an imported upstream system
type Console struct {
	ID           int64
	UpstreamID   int64
	Name         string
	Slug         string
	Manufacturer string
	Type         string
	ReleaseYear  *int
	Description  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Game is an imported upstream game, unique per (console, upstream id)
type Game struct {
	ID          int64
	ConsoleID   int64
	UpstreamID  int64
	Title       string
	Slug        string
	ReleaseYear *int
	Description string
	Rating      *int64
	Players     *int64
	Rotation    *int64
	Resolution  string
	TopStaff    bool
	DeveloperID *int64
	PublisherID *int64
	FamilyID    *int64
	GenreID     *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RegionalTitle is a game title for one region
type RegionalTitle struct {
	Region string
	Title  string
}

// RegionalDate is a game release date for one region
type RegionalDate struct {
	Region      string
	ReleaseDate string // YYYY, YYYY-MM or YYYY-MM-DD
	Year        int
}

// Corporation is a developer or publisher
type Corporation struct {
	ID         int64
	UpstreamID *int64
	Name       string
	Slug       string
	LogoURL    string
}

// Corporation roles
const (
	RoleDeveloper = "developer"
	RolePublisher = "publisher"
)

// Family groups games of one franchise
type Family struct {
	ID         int64
	UpstreamID *int64
	Name       string
	Slug       string
}

// Genre is the pre-synchronized genre reference; ID is the upstream genre id
type Genre struct {
	ID        int64
	Name      string
	ShortName string
	ParentID  int64
	IsMain    bool
	Color     string
}

// Media cache entity types
const (
	EntityConsole = "console"
	EntityGame    = "game"
)

// MediaCacheEntry points to a remote media asset without storing its bytes
type MediaCacheEntry struct {
	ID         int64
	EntityType string
	EntityID   int64
	MediaType  string
	Region     string
	URL        string
	UpstreamID int64
	Format     string
	SizeBytes  *int64
	CachedAt   time.Time
}
