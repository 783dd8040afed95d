package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/roach88/napytau/internal/core"
	"github.com/roach88/napytau/internal/model"
)

// ErrRunNotFound is returned by ReadRun for an unknown id.
var ErrRunNotFound = errors.New("store: run not found")

// Run is one recorded lifetime computation.
type Run struct {
	ID           string
	Label        string
	DatasetHash  string
	CreatedAt    time.Time
	THyp         float64
	FixedTHyp    bool
	WeightFactor float64
	Coefficients []float64
	ChiSquared   float64
	Tau          model.ValueErrorPair
	Points       []RunPoint
}

// RunPoint is the lifetime at one distance of a run.
type RunPoint struct {
	Distance float64
	Time     float64
	Tau      float64
	TauError float64
}

// NewRun assembles a run record from a finished computation.
func NewRun(id string, ds *model.DataSet, cfg core.Config, lt *core.Lifetime, createdAt time.Time) (Run, error) {
	hash, err := DatasetHash(ds)
	if err != nil {
		return Run{}, err
	}
	run := Run{
		ID:           id,
		Label:        NormalizeLabel(ds.Label),
		DatasetHash:  hash,
		CreatedAt:    createdAt.UTC(),
		THyp:         lt.THyp,
		FixedTHyp:    cfg.FixedTHyp != nil,
		WeightFactor: cfg.WeightFactor,
		Coefficients: append([]float64(nil), lt.Coefficients...),
		ChiSquared:   lt.ChiSquared,
		Tau:          lt.Tau,
		Points:       make([]RunPoint, len(lt.TauI)),
	}
	for i := range lt.TauI {
		run.Points[i] = RunPoint{
			Distance: lt.Distances[i],
			Time:     lt.Times[i],
			Tau:      lt.TauI[i],
			TauError: lt.DeltaTauI[i],
		}
	}
	return run, nil
}

// WriteRun inserts a run and its points in one transaction.
// Writing an id twice is an error.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	coefficients, err := json.Marshal(run.Coefficients)
	if err != nil {
		return fmt.Errorf("write run: marshal coefficients: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, label, dataset_hash, created_at, t_hyp, fixed_t_hyp, weight_factor, coefficients, chi_squared, tau, tau_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		NormalizeLabel(run.Label),
		run.DatasetHash,
		run.CreatedAt.UTC().Format(time.RFC3339Nano),
		run.THyp,
		run.FixedTHyp,
		run.WeightFactor,
		string(coefficients),
		nullable(run.ChiSquared),
		nullable(run.Tau.Value),
		nullable(run.Tau.Error),
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	for _, p := range run.Points {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_points (run_id, distance, time, tau, tau_error)
			VALUES (?, ?, ?, ?, ?)
		`, run.ID, p.Distance, p.Time, nullable(p.Tau), nullable(p.TauError))
		if err != nil {
			return fmt.Errorf("write run point %g: %w", p.Distance, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// ReadRun returns the run with the given id, including its points.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, label, dataset_hash, created_at, t_hyp, fixed_t_hyp, weight_factor, coefficients, chi_squared, tau, tau_error
		FROM runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, err
	}

	run.Points, err = s.readPoints(ctx, id)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// ListRuns returns all runs, or only those for label when it is non-empty,
// oldest first. Points are not loaded.
func (s *Store) ListRuns(ctx context.Context, label string) ([]Run, error) {
	query := `
		SELECT id, label, dataset_hash, created_at, t_hyp, fixed_t_hyp, weight_factor, coefficients, chi_squared, tau, tau_error
		FROM runs
	`
	var args []any
	if label != "" {
		query += " WHERE label = ?"
		args = append(args, NormalizeLabel(label))
	}
	query += " ORDER BY id COLLATE BINARY ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func (s *Store) readPoints(ctx context.Context, runID string) ([]RunPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT distance, time, tau, tau_error
		FROM run_points
		WHERE run_id = ?
		ORDER BY distance ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run points: %w", err)
	}
	defer rows.Close()

	points := []RunPoint{}
	for rows.Next() {
		var p RunPoint
		var tau, tauErr sql.NullFloat64
		if err := rows.Scan(&p.Distance, &p.Time, &tau, &tauErr); err != nil {
			return nil, fmt.Errorf("scan run point: %w", err)
		}
		p.Tau = fromNull(tau)
		p.TauError = fromNull(tauErr)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run points: %w", err)
	}
	return points, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run               Run
		createdAt, coeffs string
		chi, tau, tauErr  sql.NullFloat64
	)
	err := row.Scan(&run.ID, &run.Label, &run.DatasetHash, &createdAt, &run.THyp, &run.FixedTHyp,
		&run.WeightFactor, &coeffs, &chi, &tau, &tauErr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: parse created_at: %w", run.ID, err)
	}
	if err := json.Unmarshal([]byte(coeffs), &run.Coefficients); err != nil {
		return Run{}, fmt.Errorf("run %s: unmarshal coefficients: %w", run.ID, err)
	}
	run.ChiSquared = fromNull(chi)
	run.Tau = model.ValueErrorPair{Value: fromNull(tau), Error: fromNull(tauErr)}
	return run, nil
}

// nullable maps NaN to NULL; SQLite has no NaN.
func nullable(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func fromNull(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
