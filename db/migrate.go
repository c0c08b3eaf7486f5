package db

import (
	"database/sql"
	"embed"
	"path"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/fuzzykea/errors"
	"github.com/teranos/fuzzykea/logger"
)

//go:embed sqlite/migrations/*.sql
var migrations embed.FS

const migrationsDir = "sqlite/migrations"

// bootstrapVersion creates schema_migrations and must run before any other
const bootstrapVersion = "000"

// migration is one embedded schema file, versioned by its filename prefix
type migration struct {
	version string
	file    string
}

// Migrate brings the reference store schema up to date, applying each
// pending migration in its own transaction in filename order. A nil log
// runs silently.
func Migrate(db *sql.DB, log *zap.SugaredLogger) error {
	_, err := migrate(db, log)
	return err
}

// migrate returns the versions it applied
func migrate(db *sql.DB, log *zap.SugaredLogger) ([]string, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	pending, err := embeddedMigrations()
	if err != nil {
		return nil, err
	}
	done, err := appliedVersions(db)
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, m := range pending {
		if done[m.version] {
			log.Debugw("Schema migration already applied",
				logger.FieldFile, m.file,
				"version", m.version)
			continue
		}
		if len(done) == 0 && m.version != bootstrapVersion {
			return applied, errors.Newf("schema_migrations missing, cannot apply %s before %s", m.file, bootstrapVersion)
		}

		start := time.Now()
		if err := applyMigration(db, m); err != nil {
			return applied, err
		}
		done[m.version] = true
		applied = append(applied, m.version)

		log.Infow("Applied schema migration",
			logger.FieldFile, m.file,
			"version", m.version,
			logger.FieldDurationMS, time.Since(start).Milliseconds())
	}

	log.Infow("Reference store schema up to date",
		logger.FieldCount, len(applied),
		"skipped", len(pending)-len(applied))
	return applied, nil
}

func embeddedMigrations() ([]migration, error) {
	entries, err := migrations.ReadDir(migrationsDir)
	if err != nil {
		return nil, errors.Wrap(err, "read embedded migrations")
	}

	var out []migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		version, _, _ := strings.Cut(e.Name(), "_")
		out = append(out, migration{version: version, file: e.Name()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].file < out[j].file })
	return out, nil
}

// appliedVersions is empty on a fresh database, before the bootstrap
// migration has created schema_migrations
func appliedVersions(db *sql.DB) (map[string]bool, error) {
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "reference store unavailable")
	}

	done := make(map[string]bool)
	var exists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_migrations'").Scan(&exists)
	if err != nil {
		return nil, errors.Wrap(err, "look up schema_migrations")
	}
	if exists == 0 {
		return done, nil
	}

	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, errors.Wrap(err, "list applied migrations")
	}
	defer rows.Close()
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, errors.Wrap(err, "scan migration version")
		}
		done[v] = true
	}
	return done, errors.Wrap(rows.Err(), "list applied migrations")
}

func applyMigration(db *sql.DB, m migration) error {
	body, err := migrations.ReadFile(path.Join(migrationsDir, m.file))
	if err != nil {
		return errors.Wrapf(err, "read %s", m.file)
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrapf(err, "begin %s", m.file)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(string(body)); err != nil {
		return errors.Wrapf(err, "execute %s", m.file)
	}
	// 000 creates the table it records itself in
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
		return errors.Wrapf(err, "record %s", m.file)
	}
	return errors.Wrapf(tx.Commit(), "commit %s", m.file)
}
