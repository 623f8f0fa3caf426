// Package history records forward runs to a SQLite database and exports
// them as JSONL or Arrow IPC files.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/demes-dev/demes-go/internal/forward"
)

// ErrRunNotFound is returned when a run id does not exist in the store.
var ErrRunNotFound = errors.New("run not found")

// RunMeta describes a recorded forward run.
type RunMeta struct {
	ID         int64      `json:"id"`
	Label      string     `json:"label"`
	DemeNames  []string   `json:"deme_names"`
	Burnin     float64    `json:"burnin"`
	EndTime    float64    `json:"end_time"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Step holds the recorded quantities of one generation.
// OffspringSizes and Ancestry are nil at the final time step.
type Step struct {
	Time           float64     `json:"time"`
	ParentalSizes  []float64   `json:"parental_sizes"`
	OffspringSizes []float64   `json:"offspring_sizes,omitempty"`
	Ancestry       [][]float64 `json:"ancestry,omitempty"`
}

// Store persists forward runs in a SQLite database at dir/history.db.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if needed) the run database under dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	dbPath := filepath.Join(dir, "history.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// BeginRun inserts a new run row and returns its id.
func (s *Store) BeginRun(ctx context.Context, label string, demeNames []string, burnin, endTime float64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := json.Marshal(demeNames)
	if err != nil {
		return 0, fmt.Errorf("failed to encode deme names: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (label, deme_names, burnin, end_time, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		label, string(names), burnin, endTime, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return res.LastInsertId()
}

// RecordStep appends one generation's quantities to a run.
func (s *Store) RecordStep(ctx context.Context, runID int64, step Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	parental, err := json.Marshal(step.ParentalSizes)
	if err != nil {
		return fmt.Errorf("failed to encode parental sizes: %w", err)
	}

	var offspring, ancestry any
	if step.OffspringSizes != nil {
		data, err := json.Marshal(step.OffspringSizes)
		if err != nil {
			return fmt.Errorf("failed to encode offspring sizes: %w", err)
		}
		offspring = string(data)
	}
	if step.Ancestry != nil {
		data, err := json.Marshal(step.Ancestry)
		if err != nil {
			return fmt.Errorf("failed to encode ancestry: %w", err)
		}
		ancestry = string(data)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO steps (run_id, time, parental_sizes, offspring_sizes, ancestry)
		 VALUES (?, ?, ?, ?, ?)`,
		runID, step.Time, string(parental), offspring, ancestry)
	if err != nil {
		return fmt.Errorf("failed to insert step: %w", err)
	}
	return nil
}

// FinishRun marks a run as complete.
func (s *Store) FinishRun(ctx context.Context, runID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrRunNotFound, runID)
	}
	return nil
}

// Run returns the metadata of a single run.
func (s *Store) Run(ctx context.Context, runID int64) (RunMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, label, deme_names, burnin, end_time, created_at, finished_at
		 FROM runs WHERE id = ?`, runID)
	meta, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunMeta{}, fmt.Errorf("%w: id %d", ErrRunNotFound, runID)
	}
	return meta, err
}

// Runs returns the metadata of all recorded runs, oldest first.
func (s *Store) Runs(ctx context.Context) ([]RunMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, label, deme_names, burnin, end_time, created_at, finished_at
		 FROM runs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunMeta
	for rows.Next() {
		meta, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

// Steps returns all recorded steps of a run in time order.
func (s *Store) Steps(ctx context.Context, runID int64) ([]Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT time, parental_sizes, offspring_sizes, ancestry
		 FROM steps WHERE run_id = ? ORDER BY time`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query steps: %w", err)
	}
	defer rows.Close()

	var steps []Step
	for rows.Next() {
		var (
			st                  Step
			parental            string
			offspring, ancestry sql.NullString
		)
		if err := rows.Scan(&st.Time, &parental, &offspring, &ancestry); err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		if err := json.Unmarshal([]byte(parental), &st.ParentalSizes); err != nil {
			return nil, fmt.Errorf("failed to decode parental sizes: %w", err)
		}
		if offspring.Valid {
			if err := json.Unmarshal([]byte(offspring.String), &st.OffspringSizes); err != nil {
				return nil, fmt.Errorf("failed to decode offspring sizes: %w", err)
			}
		}
		if ancestry.Valid {
			if err := json.Unmarshal([]byte(ancestry.String), &st.Ancestry); err != nil {
				return nil, fmt.Errorf("failed to decode ancestry: %w", err)
			}
		}
		steps = append(steps, st)
	}
	return steps, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunMeta, error) {
	var (
		meta       RunMeta
		names      string
		createdAt  string
		finishedAt sql.NullString
	)
	if err := row.Scan(&meta.ID, &meta.Label, &names, &meta.Burnin, &meta.EndTime,
		&createdAt, &finishedAt); err != nil {
		return RunMeta{}, err
	}
	if err := json.Unmarshal([]byte(names), &meta.DemeNames); err != nil {
		return RunMeta{}, fmt.Errorf("failed to decode deme names: %w", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		meta.CreatedAt = t
	}
	if finishedAt.Valid {
		if t, err := time.Parse(time.RFC3339Nano, finishedAt.String); err == nil {
			meta.FinishedAt = &t
		}
	}
	return meta, nil
}

// RecordRun drives a Ready forward graph through its whole time sequence,
// recording every generation. When onStep is non-nil it observes each
// step after it is stored. RecordRun returns the new run's id.
func (s *Store) RecordRun(ctx context.Context, f *forward.Graph, label string, onStep func(Step)) (int64, error) {
	names := make([]string, 0, f.NumDemes())
	for _, d := range f.Model().DemeIter() {
		names = append(names, d.Name())
	}

	runID, err := s.BeginRun(ctx, label, names, f.Burnin(), f.ModelEndTime())
	if err != nil {
		return 0, err
	}

	if err := f.BeginTimeIteration(); err != nil {
		return 0, err
	}
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		t, ok, err := f.NextTime()
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		if err := f.UpdateState(t); err != nil {
			return 0, err
		}

		step := Step{Time: t}
		if step.ParentalSizes, err = f.ParentalDemeSizes(); err != nil {
			return 0, err
		}
		if step.OffspringSizes, err = f.OffspringDemeSizes(); err != nil {
			return 0, err
		}
		if step.OffspringSizes != nil {
			step.Ancestry = make([][]float64, f.NumDemes())
			for child := range f.NumDemes() {
				if step.OffspringSizes[child] <= 0 {
					continue
				}
				row, err := f.AncestryProportions(child)
				if err != nil {
					if errors.Is(err, forward.ErrNotComputed) {
						continue
					}
					return 0, err
				}
				step.Ancestry[child] = row
			}
		}
		if err := s.RecordStep(ctx, runID, step); err != nil {
			return 0, err
		}
		if onStep != nil {
			onStep(step)
		}
	}

	if err := s.FinishRun(ctx, runID); err != nil {
		return 0, err
	}
	return runID, nil
}
