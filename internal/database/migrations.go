package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"
)

//go:embed migrations
var migrationFiles embed.FS

// Migration represents a database migration.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

// MigrationRecord represents a migration record in the database.
type MigrationRecord struct {
	Version   int
	Name      string
	AppliedAt time.Time
}

// PostgresMigrations returns the embedded PostgreSQL schema migrations.
func PostgresMigrations() ([]Migration, error) {
	return LoadMigrations(migrationFiles, "migrations/postgres")
}

// SQLiteMigrations returns the embedded SQLite schema migrations.
func SQLiteMigrations() ([]Migration, error) {
	return LoadMigrations(migrationFiles, "migrations/sqlite")
}

// LoadMigrations reads NNN_name.up.sql / NNN_name.down.sql pairs from dir.
// Files that do not follow the naming scheme are ignored. Every version must
// have an up script.
func LoadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	byVersion := make(map[int]*Migration)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		version, name, direction, ok := parseMigrationName(entry.Name())
		if !ok {
			continue
		}

		content, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", entry.Name(), err)
		}

		m, exists := byVersion[version]
		if !exists {
			m = &Migration{Version: version, Name: name}
			byVersion[version] = m
		} else if m.Name != name {
			return nil, fmt.Errorf("migration %d has conflicting names %q and %q", version, m.Name, name)
		}

		if direction == "up" {
			m.UpSQL = string(content)
		} else {
			m.DownSQL = string(content)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if strings.TrimSpace(m.UpSQL) == "" {
			return nil, fmt.Errorf("migration %d (%s) has no up script", m.Version, m.Name)
		}
		migrations = append(migrations, *m)
	}
	slices.SortFunc(migrations, func(a, b Migration) int {
		return a.Version - b.Version
	})

	return migrations, nil
}

// parseMigrationName splits 001_create_regions.up.sql into its parts.
func parseMigrationName(file string) (version int, name, direction string, ok bool) {
	base, found := strings.CutSuffix(file, ".sql")
	if !found {
		return 0, "", "", false
	}

	switch {
	case strings.HasSuffix(base, ".up"):
		direction = "up"
	case strings.HasSuffix(base, ".down"):
		direction = "down"
	default:
		return 0, "", "", false
	}
	base = strings.TrimSuffix(base, "."+direction)

	prefix, name, found := strings.Cut(base, "_")
	if !found || name == "" {
		return 0, "", "", false
	}

	version, err := strconv.Atoi(prefix)
	if err != nil || version < 1 {
		return 0, "", "", false
	}

	return version, name, direction, true
}

// migrationTarget is the database-specific half of a Migrator.
type migrationTarget interface {
	ensureTable(ctx context.Context) error
	applied(ctx context.Context) ([]MigrationRecord, error)
	apply(ctx context.Context, m Migration) (bool, error)
	rollback(ctx context.Context, m Migration) error
}

// Migrator handles database migrations.
type Migrator struct {
	target     migrationTarget
	migrations []Migration
}

// NewMigrator creates a Migrator applying migrations to a PostgreSQL pool.
func NewMigrator(pool *Pool, migrations []Migration) *Migrator {
	return &Migrator{target: &pgTarget{pool: pool}, migrations: migrations}
}

// NewSQLiteMigrator creates a Migrator applying migrations to a SQLite
// database.
func NewSQLiteMigrator(db *sql.DB, migrations []Migration) *Migrator {
	return &Migrator{target: &sqlTarget{db: db}, migrations: migrations}
}

// EnsureMigrationsTable creates the migrations tracking table if it doesn't exist.
func (m *Migrator) EnsureMigrationsTable(ctx context.Context) error {
	return m.target.ensureTable(ctx)
}

// AppliedMigrations returns the list of applied migrations.
func (m *Migrator) AppliedMigrations(ctx context.Context) ([]MigrationRecord, error) {
	return m.target.applied(ctx)
}

// PendingMigrations returns migrations that haven't been applied yet.
func (m *Migrator) PendingMigrations(ctx context.Context) ([]Migration, error) {
	applied, err := m.AppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	appliedSet := make(map[int]bool, len(applied))
	for _, r := range applied {
		appliedSet[r.Version] = true
	}

	var pending []Migration
	for _, migration := range m.migrations {
		if !appliedSet[migration.Version] {
			pending = append(pending, migration)
		}
	}

	return pending, nil
}

// Up applies all pending migrations in version order and returns how many
// were applied. Each migration runs in its own transaction, so a failure
// leaves earlier migrations in place.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	if err := m.EnsureMigrationsTable(ctx); err != nil {
		return 0, fmt.Errorf("failed to ensure migrations table: %w", err)
	}

	pending, err := m.PendingMigrations(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, migration := range pending {
		ok, err := m.target.apply(ctx, migration)
		if err != nil {
			return count, fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Name, err)
		}
		if ok {
			count++
		}
	}

	return count, nil
}

// Down rolls back the last applied migration.
func (m *Migrator) Down(ctx context.Context) error {
	applied, err := m.AppliedMigrations(ctx)
	if err != nil {
		return err
	}

	if len(applied) == 0 {
		return nil
	}

	last := applied[len(applied)-1]
	idx := slices.IndexFunc(m.migrations, func(mg Migration) bool {
		return mg.Version == last.Version
	})
	if idx < 0 {
		return fmt.Errorf("migration %d not found", last.Version)
	}

	return m.target.rollback(ctx, m.migrations[idx])
}

// CurrentVersion returns the current migration version.
func (m *Migrator) CurrentVersion(ctx context.Context) (int, error) {
	applied, err := m.AppliedMigrations(ctx)
	if err != nil {
		return 0, err
	}

	if len(applied) == 0 {
		return 0, nil
	}

	return applied[len(applied)-1].Version, nil
}

// migrationLockID keys the advisory lock that serializes concurrent
// migrators against one PostgreSQL database.
const migrationLockID = 7_304_219_551

type pgTarget struct {
	pool *Pool
}

func (t *pgTarget) ensureTable(ctx context.Context) error {
	_, err := t.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)
	`)
	return err
}

func (t *pgTarget) applied(ctx context.Context) ([]MigrationRecord, error) {
	rows, err := t.pool.Query(ctx, `SELECT version, name, applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []MigrationRecord
	for rows.Next() {
		var r MigrationRecord
		if err := rows.Scan(&r.Version, &r.Name, &r.AppliedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

func (t *pgTarget) apply(ctx context.Context, m Migration) (bool, error) {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(migrationLockID)); err != nil {
		return false, fmt.Errorf("failed to acquire migration lock: %w", err)
	}

	// Another instance may have applied it while we waited for the lock.
	var done bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, m.Version).Scan(&done); err != nil {
		return false, err
	}
	if done {
		return false, nil
	}

	if _, err := tx.Exec(ctx, m.UpSQL); err != nil {
		return false, fmt.Errorf("failed to execute up SQL: %w", err)
	}

	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.Version, m.Name); err != nil {
		return false, fmt.Errorf("failed to record migration: %w", err)
	}

	return true, tx.Commit(ctx)
}

func (t *pgTarget) rollback(ctx context.Context, m Migration) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if m.DownSQL != "" {
		if _, err := tx.Exec(ctx, m.DownSQL); err != nil {
			return fmt.Errorf("failed to execute down SQL: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM schema_migrations WHERE version = $1`, m.Version); err != nil {
		return fmt.Errorf("failed to remove migration record: %w", err)
	}

	return tx.Commit(ctx)
}

type sqlTarget struct {
	db *sql.DB
}

func (t *sqlTarget) ensureTable(ctx context.Context) error {
	_, err := t.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at INTEGER NOT NULL
		)
	`)
	return err
}

func (t *sqlTarget) applied(ctx context.Context) ([]MigrationRecord, error) {
	rows, err := t.db.QueryContext(ctx, `SELECT version, name, applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []MigrationRecord
	for rows.Next() {
		var (
			r         MigrationRecord
			appliedAt int64
		)
		if err := rows.Scan(&r.Version, &r.Name, &appliedAt); err != nil {
			return nil, err
		}
		r.AppliedAt = time.Unix(appliedAt, 0)
		records = append(records, r)
	}

	return records, rows.Err()
}

func (t *sqlTarget) apply(ctx context.Context, m Migration) (bool, error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, m.UpSQL); err != nil {
		return false, fmt.Errorf("failed to execute up SQL: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
		m.Version, m.Name, time.Now().Unix())
	if err != nil {
		return false, fmt.Errorf("failed to record migration: %w", err)
	}

	return true, tx.Commit()
}

func (t *sqlTarget) rollback(ctx context.Context, m Migration) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if m.DownSQL != "" {
		if _, err := tx.ExecContext(ctx, m.DownSQL); err != nil {
			return fmt.Errorf("failed to execute down SQL: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = ?`, m.Version); err != nil {
		return fmt.Errorf("failed to remove migration record: %w", err)
	}

	return tx.Commit()
}
