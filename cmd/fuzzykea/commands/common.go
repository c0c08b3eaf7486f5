package commands

import (
	"context"

	"github.com/teranos/fuzzykea/am"
	"github.com/teranos/fuzzykea/db"
	"github.com/teranos/fuzzykea/errors"
	"github.com/teranos/fuzzykea/internal/loader"
	"github.com/teranos/fuzzykea/logger"
	"github.com/teranos/fuzzykea/pathway"
	"github.com/teranos/fuzzykea/reference"
)

// Hints returns the user-facing hints attached anywhere in err's chain
func Hints(err error) []string {
	return errors.GetAllHints(err)
}

// openStore opens and migrates the reference database.
// If dbPath is empty, the configured path is used.
func openStore(cfg *am.Config, dbPath string) (*db.Store, error) {
	if dbPath == "" {
		dbPath = cfg.GetDatabasePath()
	}
	store, err := db.OpenStore(dbPath, logger.Logger.Named("db"))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database at %s", dbPath)
	}
	return store, nil
}

// session bundles what analyze and server need to read reference data
type session struct {
	cfg    *am.Config
	store  *db.Store
	loader *loader.Loader
}

// newSession loads configuration and opens the database when the reference
// or pathways may come from it.
func newSession(dbPath string) (*session, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	s := &session{cfg: cfg}
	if cfg.Reference.Source == am.ReferenceSourceSQLite || cfg.Pathways.Enabled {
		if s.store, err = openStore(cfg, dbPath); err != nil {
			return nil, err
		}
	}
	s.loader = loader.New(cfg, s.store, logger.Logger.Named("loader"))
	return s, nil
}

func (s *session) load(ctx context.Context) (*reference.Dataset, *pathway.Index, error) {
	ds, err := s.loader.LoadReference(ctx)
	if err != nil {
		return nil, nil, err
	}
	idx, err := s.loader.LoadPathways(ctx)
	if err != nil {
		return nil, nil, err
	}
	return ds, idx, nil
}

func (s *session) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}
