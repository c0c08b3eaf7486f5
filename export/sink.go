package export

import (
	"bytes"
	"context"
	"io"
	"path"

	"go.uber.org/zap"

	"github.com/teranos/fuzzykea/blob"
	"github.com/teranos/fuzzykea/enrich"
	"github.com/teranos/fuzzykea/errors"
	"github.com/teranos/fuzzykea/logger"
)

const contentTypeTSV = "text/tab-separated-values"

// Sink writes the result files of an outcome into a blob store.
// Files with the same name are replaced.
type Sink struct {
	store blob.Store
	log   *zap.SugaredLogger
	// RunDirs places each run's files under a directory named by run id
	RunDirs bool
	Options Options
}

// NewSink wraps store; a nil log uses the export component logger
func NewSink(store blob.Store, log *zap.SugaredLogger) *Sink {
	if log == nil {
		log = logger.ComponentLogger("export")
	}
	return &Sink{store: store, log: log}
}

// Write exports both result tables and the site hit details.
// Empty outcomes write nothing.
func (s *Sink) Write(ctx context.Context, out *enrich.Outcome, title string) ([]blob.Info, error) {
	if out == nil || out.Empty() {
		return nil, nil
	}

	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{Filename(title, enrich.LevelSite), func(w io.Writer) error {
			return WriteSiteLevel(w, out.SiteResults, out.SiteHits, s.Options)
		}},
		{Filename(title, enrich.LevelSubstrate), func(w io.Writer) error {
			return WriteSubstrateLevel(w, out.SubstrateResults, out.SubstrateHits, s.Options)
		}},
		{HitsFilename(title, enrich.LevelSite), func(w io.Writer) error {
			return WriteHits(w, out.SiteHits)
		}},
		{HitsFilename(title, enrich.LevelSubstrate), func(w io.Writer) error {
			return WriteSubstrateHits(w, out.SubstrateHits)
		}},
	}

	infos := make([]blob.Info, 0, len(files))
	for _, f := range files {
		var buf bytes.Buffer
		if err := f.write(&buf); err != nil {
			return infos, errors.Wrapf(err, "render %s", f.name)
		}

		key := f.name
		if s.RunDirs {
			key = path.Join(out.RunID, f.name)
		}
		info, err := s.store.Put(ctx, key, &buf, blob.PutOptions{
			ContentType: contentTypeTSV,
			Metadata:    map[string]string{"run-id": out.RunID},
		})
		if err != nil {
			return infos, errors.Wrapf(err, "export %s", key)
		}
		infos = append(infos, info)

		s.log.Infow("Exported results",
			logger.FieldFile, info.Location,
			logger.FieldSize, info.Size,
			logger.FieldRunID, out.RunID)
	}
	return infos, nil
}
