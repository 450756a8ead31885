package db

import (
	"database/sql"
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/scholarfed/errors"
)

//go:embed sqlite/migrations/*.sql
var migrations embed.FS

const migrationsDir = "sqlite/migrations"

// migration is one embedded SQL file; version is the numeric file prefix.
type migration struct {
	file    string
	version string
}

// Migrate applies every embedded migration not yet recorded in
// schema_migrations, each in its own transaction. log may be nil.
func Migrate(db *sql.DB, log *zap.SugaredLogger) error {
	pending, err := listMigrations()
	if err != nil {
		return err
	}

	applied := 0
	for _, m := range pending {
		done, err := isApplied(db, m.version)
		if err != nil {
			return err
		}
		if done {
			continue
		}
		if log != nil {
			log.Infow("Applying migration", "migration", m.file, "version", m.version)
		}
		if err := apply(db, m); err != nil {
			return err
		}
		applied++
	}

	if log != nil && applied > 0 {
		log.Infow("Migrations complete", "total_migrations", len(pending), "applied", applied)
	}
	return nil
}

func listMigrations() ([]migration, error) {
	files, err := fs.Glob(migrations, path.Join(migrationsDir, "*.sql"))
	if err != nil {
		return nil, errors.Wrap(err, "list migrations")
	}
	// 000_create_schema_migrations.sql sorts first
	sort.Strings(files)

	out := make([]migration, 0, len(files))
	for _, f := range files {
		name := path.Base(f)
		out = append(out, migration{file: name, version: strings.SplitN(name, "_", 2)[0]})
	}
	return out, nil
}

// isApplied reports whether version is recorded. Before 000 runs the
// bookkeeping table does not exist, which only counts as "not applied" for
// 000 itself.
func isApplied(db *sql.DB, version string) (bool, error) {
	var exists bool
	err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)", version).Scan(&exists)
	if err != nil {
		if version == "000" {
			return false, nil
		}
		return false, errors.Wrapf(err, "schema_migrations unreadable before %s", version)
	}
	return exists, nil
}

func apply(db *sql.DB, m migration) error {
	body, err := migrations.ReadFile(path.Join(migrationsDir, m.file))
	if err != nil {
		return errors.Wrapf(err, "read %s", m.file)
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrapf(err, "begin tx for %s", m.file)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(string(body)); err != nil {
		return errors.Wrapf(err, "execute %s", m.file)
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
		return errors.Wrapf(err, "record %s", m.file)
	}
	return errors.Wrapf(tx.Commit(), "commit %s", m.file)
}
