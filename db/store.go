package db

import (
	"context"
	"database/sql"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/fuzzykea/errors"
	"github.com/teranos/fuzzykea/logger"
	"github.com/teranos/fuzzykea/pathway"
	"github.com/teranos/fuzzykea/reference"
	"github.com/teranos/fuzzykea/site"
)

// Import kinds recorded in the imports table
const (
	KindPSP      = "psp"
	KindReactome = "reactome"
)

// Query constants
const (
	importInsertQuery = `
		INSERT INTO imports (run_id, kind, source, rows)
		VALUES (?, ?, ?, ?)`

	edgeInsertQuery = `
		INSERT INTO kinase_substrates (import_id, kinase, kinase_accession, kinase_gene, kinase_organism,
			substrate, substrate_accession, substrate_gene, substrate_organism, residue)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	edgeSelectQuery = `
		SELECT kinase, kinase_accession, kinase_gene, kinase_organism,
			substrate, substrate_accession, substrate_gene, substrate_organism, residue
		FROM kinase_substrates
		ORDER BY id`

	pathwayInsertQuery = `
		INSERT INTO reactome_pathways (import_id, accession, reactome_id, url, name, evidence, species)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	pathwaySelectQuery = `
		SELECT accession, reactome_id, url, name, evidence, species
		FROM reactome_pathways
		WHERE (? = '' OR species = ?)
		ORDER BY id`

	latestImportQuery = `
		SELECT run_id, source, rows, imported_at
		FROM imports
		WHERE kind = ?
		ORDER BY id DESC
		LIMIT 1`
)

// Import describes one completed ix run
type Import struct {
	RunID      string    `json:"run_id"`
	Kind       string    `json:"kind"`
	Source     string    `json:"source"`
	Rows       int       `json:"rows"`
	ImportedAt time.Time `json:"imported_at"`
}

// Stats summarises the store contents
type Stats struct {
	Edges          int     `json:"edges"`
	Substrates     int     `json:"substrates"`
	Kinases        int     `json:"kinases"`
	Pathways       int     `json:"pathway_rows"`
	LatestPSP      *Import `json:"latest_psp,omitempty"`
	LatestReactome *Import `json:"latest_reactome,omitempty"`
}

// Store reads and replaces reference data in SQLite
type Store struct {
	db     *sql.DB
	log    *zap.SugaredLogger
	closed atomic.Bool
}

// NewStore wraps an already migrated database
func NewStore(db *sql.DB, log *zap.SugaredLogger) *Store {
	if log == nil {
		log = logger.ComponentLogger("db")
	}
	return &Store{db: db, log: log}
}

// OpenStore opens path, runs migrations and returns a Store that owns the handle
func OpenStore(path string, log *zap.SugaredLogger) (*Store, error) {
	db, err := OpenWithMigrations(path, log)
	if err != nil {
		return nil, err
	}
	return NewStore(db, log), nil
}

// DB exposes the underlying handle
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database; later calls fail with ErrDatabaseClosed
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func (s *Store) check() error {
	if s.closed.Load() {
		return ErrDatabaseClosed
	}
	return nil
}

// ImportEdges replaces all kinase-substrate edges in one transaction
func (s *Store) ImportEdges(ctx context.Context, source string, edges []reference.Edge) (*Import, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	imp := &Import{RunID: uuid.NewString(), Kind: KindPSP, Source: source, Rows: len(edges)}
	err := s.replace(ctx, imp, "DELETE FROM kinase_substrates", edgeInsertQuery, len(edges), func(stmt *sql.Stmt, importID int64, i int) error {
		e := edges[i]
		_, err := stmt.ExecContext(ctx, importID,
			e.Kinase, e.KinaseAccession, e.KinaseGene, e.KinaseOrganism,
			e.Substrate, e.SubstrateAccession, e.SubstrateGene, e.SubstrateOrganism,
			e.Residue.String())
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "import kinase-substrate edges")
	}

	s.log.Infow("Imported reference edges",
		logger.FieldSource, source,
		logger.FieldCount, len(edges),
		logger.FieldRunID, imp.RunID)
	return imp, nil
}

// ImportPathways replaces all Reactome rows in one transaction
func (s *Store) ImportPathways(ctx context.Context, source string, entries []pathway.Entry) (*Import, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	imp := &Import{RunID: uuid.NewString(), Kind: KindReactome, Source: source, Rows: len(entries)}
	err := s.replace(ctx, imp, "DELETE FROM reactome_pathways", pathwayInsertQuery, len(entries), func(stmt *sql.Stmt, importID int64, i int) error {
		e := entries[i]
		_, err := stmt.ExecContext(ctx, importID, e.Accession, e.ID, e.URL, e.Name, e.Evidence, e.Species)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "import reactome pathways")
	}

	s.log.Infow("Imported pathways",
		logger.FieldSource, source,
		logger.FieldCount, len(entries),
		logger.FieldRunID, imp.RunID)
	return imp, nil
}

// replace clears a table, records imp and inserts n rows through insert
func (s *Store) replace(ctx context.Context, imp *Import, clear, insert string, n int, row func(*sql.Stmt, int64, int) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, clear); err != nil {
		return errors.Wrap(err, "clear previous rows")
	}

	res, err := tx.ExecContext(ctx, importInsertQuery, imp.RunID, imp.Kind, imp.Source, imp.Rows)
	if err != nil {
		return errors.Wrap(err, "record import")
	}
	importID, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "read import id")
	}

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return errors.Wrap(err, "prepare insert")
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if err := row(stmt, importID, i); err != nil {
			return errors.Wrapf(err, "insert row %d", i)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit")
	}
	imp.ImportedAt = time.Now().UTC()
	return nil
}

// LoadDataset reads every stored edge into a Dataset.
// Returns ErrNoReference when nothing has been imported.
func (s *Store) LoadDataset(ctx context.Context) (*reference.Dataset, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	source := "sqlite"
	imp, err := s.latest(ctx, KindPSP)
	if err != nil {
		return nil, err
	}
	if imp != nil {
		source = "sqlite:" + imp.Source
	}

	rows, err := s.db.QueryContext(ctx, edgeSelectQuery)
	if err != nil {
		return nil, errors.Wrap(err, "query kinase-substrate edges")
	}
	defer rows.Close()

	var edges []reference.Edge
	for rows.Next() {
		var e reference.Edge
		var residue string
		if err := rows.Scan(&e.Kinase, &e.KinaseAccession, &e.KinaseGene, &e.KinaseOrganism,
			&e.Substrate, &e.SubstrateAccession, &e.SubstrateGene, &e.SubstrateOrganism, &residue); err != nil {
			return nil, errors.Wrap(err, "scan edge")
		}
		e.Residue, err = site.ParseResidue(residue)
		if err != nil {
			return nil, errors.Wrapf(err, "stored residue %q", residue)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate edges")
	}
	if len(edges) == 0 {
		return nil, ErrNoReference
	}
	return reference.NewDataset(source, edges), nil
}

// LoadPathways reads stored Reactome rows for species ("" for all) into an Index
func (s *Store) LoadPathways(ctx context.Context, species string) (*pathway.Index, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, pathwaySelectQuery, species, species)
	if err != nil {
		return nil, errors.Wrap(err, "query reactome pathways")
	}
	defer rows.Close()

	var entries []pathway.Entry
	for rows.Next() {
		var e pathway.Entry
		if err := rows.Scan(&e.Accession, &e.ID, &e.URL, &e.Name, &e.Evidence, &e.Species); err != nil {
			return nil, errors.Wrap(err, "scan pathway")
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate pathways")
	}
	return pathway.NewIndex(entries), nil
}

// Stats counts stored rows and reports the latest import of each kind
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	var st Stats
	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM kinase_substrates", &st.Edges},
		{"SELECT COUNT(DISTINCT substrate_accession) FROM kinase_substrates", &st.Substrates},
		{"SELECT COUNT(*) FROM (SELECT DISTINCT kinase, kinase_accession FROM kinase_substrates)", &st.Kinases},
		{"SELECT COUNT(*) FROM reactome_pathways", &st.Pathways},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, errors.Wrapf(err, "stats query %q", c.query)
		}
	}

	var err error
	if st.LatestPSP, err = s.latest(ctx, KindPSP); err != nil {
		return nil, err
	}
	if st.LatestReactome, err = s.latest(ctx, KindReactome); err != nil {
		return nil, err
	}
	return &st, nil
}

// latest returns the newest import of kind, or nil if there is none
func (s *Store) latest(ctx context.Context, kind string) (*Import, error) {
	imp := Import{Kind: kind}
	var importedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, latestImportQuery, kind).
		Scan(&imp.RunID, &imp.Source, &imp.Rows, &importedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "latest %s import", kind)
	}
	imp.ImportedAt = importedAt.Time
	return &imp, nil
}
