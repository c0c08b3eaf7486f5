// Package loader resolves the configured reference sources (local file,
// s3:// object or the SQLite store) into in-memory datasets.
package loader

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/fuzzykea/am"
	"github.com/teranos/fuzzykea/blob"
	"github.com/teranos/fuzzykea/db"
	"github.com/teranos/fuzzykea/errors"
	"github.com/teranos/fuzzykea/logger"
	"github.com/teranos/fuzzykea/pathway"
	"github.com/teranos/fuzzykea/reference"
)

// Loader reads the kinase-substrate dataset and the pathway index
type Loader struct {
	Reference am.ReferenceConfig
	Pathways  am.PathwaysConfig
	S3        blob.S3Options
	// Store backs the sqlite source; may be nil for file sources
	Store *db.Store
	log   *zap.SugaredLogger
}

// New builds a Loader from cfg
func New(cfg *am.Config, store *db.Store, log *zap.SugaredLogger) *Loader {
	if log == nil {
		log = logger.ComponentLogger("loader")
	}
	return &Loader{
		Reference: cfg.Reference,
		Pathways:  cfg.Pathways,
		S3:        S3Options(cfg),
		Store:     store,
		log:       log,
	}
}

// S3Options extracts the bucket endpoint settings shared by reference and export locations
func S3Options(cfg *am.Config) blob.S3Options {
	return blob.S3Options{
		Region:    cfg.Export.S3Region,
		Endpoint:  cfg.Export.S3Endpoint,
		PathStyle: cfg.Export.S3PathStyle,
	}
}

// LoadReference returns a freshly loaded dataset
func (l *Loader) LoadReference(ctx context.Context) (*reference.Dataset, error) {
	start := time.Now()

	if l.Reference.Source == am.ReferenceSourceSQLite {
		if l.Store == nil {
			return nil, errors.NewInvalidConfigError("reference.source is sqlite but no database is open")
		}
		ds, err := l.Store.LoadDataset(ctx)
		if err != nil {
			return nil, errors.WithHint(err, "import a dataset first: fuzzykea ix psp <file>")
		}
		l.log.Infow("Loaded reference from database",
			logger.FieldSource, ds.Source(),
			logger.FieldCount, ds.Len(),
			logger.FieldDurationMS, time.Since(start).Milliseconds())
		return ds, nil
	}

	ds, _, err := l.ReadPSP(ctx, l.Reference.Path)
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// ReadPSP loads a PhosphoSitePlus table from a path or s3:// URI using the
// configured organism filters.
func (l *Loader) ReadPSP(ctx context.Context, location string) (*reference.Dataset, reference.LoadReport, error) {
	rc, err := blob.OpenObject(ctx, location, l.S3)
	if err != nil {
		return nil, reference.LoadReport{}, errors.WithHint(
			errors.Wrap(err, "open kinase-substrate dataset"),
			"set reference.path or FUZZYKEA_REFERENCE_PATH")
	}
	defer rc.Close()

	ds, report, err := reference.LoadPSP(rc, reference.LoadOptions{
		Source:            location,
		KinaseOrganism:    l.Reference.KinaseOrganism,
		SubstrateOrganism: l.Reference.SubstrateOrganism,
		Logger:            l.log,
	})
	if err != nil {
		return nil, report, errors.Wrapf(err, "load %s", location)
	}
	if report.Malformed > 0 || report.Duplicates > 0 {
		l.log.Warnw("Skipped reference rows",
			logger.FieldSource, location,
			"malformed", report.Malformed,
			"duplicates", report.Duplicates)
	}
	return ds, report, nil
}

// LoadPathways returns the Reactome index, or nil when pathways are disabled.
// Stored pathways are preferred over the file when the database has any.
func (l *Loader) LoadPathways(ctx context.Context) (*pathway.Index, error) {
	if !l.Pathways.Enabled {
		return nil, nil
	}

	if l.Store != nil {
		idx, err := l.Store.LoadPathways(ctx, l.Pathways.Species)
		if err != nil {
			return nil, err
		}
		if idx.Len() > 0 {
			return idx, nil
		}
	}

	entries, err := l.ReadReactome(ctx, l.Pathways.Path)
	if err != nil {
		return nil, err
	}
	return pathway.NewIndex(entries), nil
}

// ReadReactome reads UniProt2Reactome rows for the configured species
func (l *Loader) ReadReactome(ctx context.Context, location string) ([]pathway.Entry, error) {
	rc, err := blob.OpenObject(ctx, location, l.S3)
	if err != nil {
		return nil, errors.WithHint(
			errors.Wrap(err, "open pathway mapping"),
			"set pathways.path or disable pathways.enabled")
	}
	defer rc.Close()

	entries, err := pathway.LoadReactome(rc, l.Pathways.Species)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", location)
	}
	l.log.Infow("Loaded pathway mapping",
		logger.FieldSource, location,
		logger.FieldCount, len(entries))
	return entries, nil
}
