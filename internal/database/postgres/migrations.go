package postgres

import (
	"context"
	"embed"
	"fmt"
	"path"
	"sort"

	log "github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrationsTable records which swap history schema versions are applied.
const migrationsTable = "swap_history_migrations"

// migration is one embedded schema change of the swap history store.
type migration struct {
	version string
	sql     string
}

// loadMigrations returns the embedded swap history migrations ordered by version.
func loadMigrations() ([]migration, error) {
	names, err := fsGlob("migrations/*.sql")
	if err != nil {
		return nil, err
	}

	migrations := make([]migration, 0, len(names))
	for _, name := range names {
		content, err := migrationsFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read swap history migration %s: %w", name, err)
		}
		migrations = append(migrations, migration{version: path.Base(name), sql: string(content)})
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].version < migrations[j].version })
	return migrations, nil
}

func fsGlob(pattern string) ([]string, error) {
	entries, err := migrationsFS.ReadDir(path.Dir(pattern))
	if err != nil {
		return nil, fmt.Errorf("list swap history migrations: %w", err)
	}
	var names []string
	for _, e := range entries {
		name := path.Join(path.Dir(pattern), e.Name())
		if ok, _ := path.Match(pattern, name); ok && !e.IsDir() {
			names = append(names, name)
		}
	}
	return names, nil
}

// pendingMigrations drops the versions already applied.
func pendingMigrations(all []migration, applied map[string]bool) []migration {
	var pending []migration
	for _, m := range all {
		if !applied[m.version] {
			pending = append(pending, m)
		}
	}
	return pending
}

// appliedVersions creates the version table if needed and returns its rows.
func (p *Pool) appliedVersions(ctx context.Context) (map[string]bool, error) {
	if _, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS `+migrationsTable+` (
			version    TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return nil, fmt.Errorf("create swap history version table: %w", err)
	}

	versions, err := p.MigrationsApplied(ctx)
	if err != nil {
		return nil, err
	}
	applied := make(map[string]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}
	return applied, nil
}

// Migrate brings the swap history schema up to date. Each migration runs in
// its own transaction together with its version row.
func (p *Pool) Migrate(ctx context.Context) error {
	all, err := loadMigrations()
	if err != nil {
		return err
	}
	applied, err := p.appliedVersions(ctx)
	if err != nil {
		return err
	}

	pending := pendingMigrations(all, applied)
	if len(pending) == 0 {
		log.WithField("versions", len(all)).Debug("Swap history schema is up to date")
		return nil
	}
	for _, m := range pending {
		if err := p.applyMigration(ctx, m); err != nil {
			return err
		}
		log.WithField("migration", m.version).Info("Applied swap history migration")
	}
	return nil
}

func (p *Pool) applyMigration(ctx context.Context, m migration) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin swap history migration %s: %w", m.version, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		return fmt.Errorf("swap history migration %s: %w", m.version, err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO "+migrationsTable+" (version) VALUES ($1)", m.version); err != nil {
		return fmt.Errorf("record swap history migration %s: %w", m.version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit swap history migration %s: %w", m.version, err)
	}
	return nil
}

// MigrationsApplied lists the applied swap history schema versions in order.
func (p *Pool) MigrationsApplied(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, "SELECT version FROM "+migrationsTable+" ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("query swap history versions: %w", err)
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan swap history version: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swap history versions: %w", err)
	}
	return versions, nil
}
