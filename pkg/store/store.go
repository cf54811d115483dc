// Package store keeps hill-climb training runs in a SQLite database.
//
// Every run gets a UUID and the JSON of the configuration it was started
// with. Records are appended as the optimizer emits them, so an interrupted
// run keeps everything it produced up to that point.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	errs "github.com/matzehuels/wordorder/pkg/errors"
	"github.com/matzehuels/wordorder/pkg/grammar"
	"github.com/matzehuels/wordorder/pkg/hillclimb"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	created_at   TEXT NOT NULL,
	config_json  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS records (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id            TEXT NOT NULL,
	stage             TEXT NOT NULL,
	epoch             INTEGER NOT NULL,
	candidate         INTEGER NOT NULL,
	accepted          INTEGER NOT NULL,
	inert             INTEGER NOT NULL,
	mean_improvement  REAL NOT NULL,
	grammar_json      TEXT NOT NULL,
	scores_json       TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE INDEX IF NOT EXISTS records_run ON records(run_id, stage);
`

// timeFormat is fixed width so that timestamps sort as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Run describes one stored training run.
type Run struct {
	ID         string
	CreatedAt  time.Time
	ConfigJSON string
	Records    int
}

// scores is the JSON stored in records.scores_json.
type scores struct {
	Train        map[string]float64 `json:"train_scores,omitempty"`
	Improvements map[string]float64 `json:"improvements,omitempty"`
	Dev          map[string]float64 `json:"dev_scores,omitempty"`
}

// Store is a SQLite-backed run store.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun registers a new run with the JSON encoding of config.
func (s *Store) CreateRun(ctx context.Context, config any) (Run, error) {
	data, err := json.Marshal(config)
	if err != nil {
		return Run{}, fmt.Errorf("marshal config: %w", err)
	}
	run := Run{
		ID:         uuid.New().String(),
		CreatedAt:  time.Now().UTC(),
		ConfigJSON: string(data),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, created_at, config_json) VALUES (?, ?, ?)`,
		run.ID, run.CreatedAt.Format(timeFormat), run.ConfigJSON,
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// Append stores one record of a run.
func (s *Store) Append(ctx context.Context, runID string, rec hillclimb.Record) error {
	g, err := json.Marshal(rec.Grammar)
	if err != nil {
		return fmt.Errorf("marshal grammar: %w", err)
	}
	sc, err := json.Marshal(scores{Train: rec.TrainScores, Improvements: rec.Improvements, Dev: rec.DevScores})
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (run_id, stage, epoch, candidate, accepted, inert, mean_improvement, grammar_json, scores_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, string(rec.Stage), rec.Epoch, rec.Candidate, rec.Accepted, rec.Inert, rec.MeanImprovement, string(g), string(sc),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Recorder returns an emit function appending to runID, for use with
// [hillclimb.Optimizer.Train].
func (s *Store) Recorder(ctx context.Context, runID string) func(hillclimb.Record) error {
	return func(rec hillclimb.Record) error {
		return s.Append(ctx, runID, rec)
	}
}

// Run returns the run with the given ID. An ID prefix of at least eight
// characters is accepted when it is unambiguous.
func (s *Store) Run(ctx context.Context, id string) (Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.run_id, r.created_at, r.config_json, COUNT(rec.id)
		 FROM runs r LEFT JOIN records rec ON rec.run_id = r.run_id
		 WHERE r.run_id = ? OR (length(?) >= 8 AND r.run_id LIKE ? || '%')
		 GROUP BY r.run_id`,
		id, id, id,
	)
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	runs, err := scanRuns(rows)
	if err != nil {
		return Run{}, err
	}
	switch len(runs) {
	case 0:
		return Run{}, errs.New(errs.ErrCodeNotFound, "no run %s", id)
	case 1:
		return runs[0], nil
	}
	return Run{}, errs.New(errs.ErrCodeInvalidInput, "run id %s is ambiguous", id)
}

// Runs lists all runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.run_id, r.created_at, r.config_json, COUNT(rec.id)
		 FROM runs r LEFT JOIN records rec ON rec.run_id = r.run_id
		 GROUP BY r.run_id
		 ORDER BY r.created_at DESC, r.rowid DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return scanRuns(rows)
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	defer rows.Close()
	var out []Run
	for rows.Next() {
		var run Run
		var created string
		if err := rows.Scan(&run.ID, &created, &run.ConfigJSON, &run.Records); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.CreatedAt, _ = time.Parse(timeFormat, created)
		out = append(out, run)
	}
	return out, rows.Err()
}

// Records returns the records of a run in insertion order. An empty stage
// returns every stage.
func (s *Store) Records(ctx context.Context, runID string, stage hillclimb.Stage) ([]hillclimb.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stage, epoch, candidate, accepted, inert, mean_improvement, grammar_json, scores_json
		 FROM records
		 WHERE run_id = ? AND (? = '' OR stage = ?)
		 ORDER BY id`,
		runID, string(stage), string(stage),
	)
	if err != nil {
		return nil, fmt.Errorf("get records: %w", err)
	}
	defer rows.Close()

	var out []hillclimb.Record
	for rows.Next() {
		var rec hillclimb.Record
		var st, g, sc string
		if err := rows.Scan(&st, &rec.Epoch, &rec.Candidate, &rec.Accepted, &rec.Inert, &rec.MeanImprovement, &g, &sc); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Stage = hillclimb.Stage(st)
		if err := json.Unmarshal([]byte(g), &rec.Grammar); err != nil {
			return nil, fmt.Errorf("unmarshal grammar: %w", err)
		}
		var decoded scores
		if err := json.Unmarshal([]byte(sc), &decoded); err != nil {
			return nil, fmt.Errorf("unmarshal scores: %w", err)
		}
		rec.TrainScores, rec.Improvements, rec.DevScores = decoded.Train, decoded.Improvements, decoded.Dev
		out = append(out, rec)
	}
	return out, rows.Err()
}

// AcceptedGrammars returns the grammars of accepted training steps in the
// order they were accepted. A candidate below zero selects every candidate.
func (s *Store) AcceptedGrammars(ctx context.Context, runID string, candidate int) ([]grammar.Grammar, error) {
	records, err := s.Records(ctx, runID, hillclimb.StageTrain)
	if err != nil {
		return nil, err
	}
	var out []grammar.Grammar
	for _, rec := range records {
		if rec.Accepted && (candidate < 0 || rec.Candidate == candidate) {
			out = append(out, rec.Grammar)
		}
	}
	return out, nil
}
