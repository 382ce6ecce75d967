package costmodel

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// SampleStore persists calibration measurements in SQLite so repeated
// benchmark runs accumulate history and derived constants smooth over
// host noise.
type SampleStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Sample is one measured data point for a strategy.
type Sample struct {
	RunID        string
	StrategyID   string
	ElementCount int
	PerItemNs    float64
	MeasuredAt   time.Time
}

// OpenSampleStore initializes the SQLite database at the given path.
func OpenSampleStore(path string) (*SampleStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SampleStore{db: db, dbPath: path}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// initialize creates the required tables.
func (s *SampleStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS calibration_runs (
		id TEXT PRIMARY KEY,
		host_cores INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS calibration_samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES calibration_runs(id),
		strategy_id TEXT NOT NULL,
		element_count INTEGER NOT NULL,
		per_item_ns REAL NOT NULL,
		measured_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_samples_strategy ON calibration_samples(strategy_id);
	CREATE INDEX IF NOT EXISTS idx_samples_run ON calibration_samples(run_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize sample store: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SampleStore) Close() error {
	return s.db.Close()
}

// Path returns the database location.
func (s *SampleStore) Path() string {
	return s.dbPath
}

// BeginRun records a new benchmark run and returns its id.
func (s *SampleStore) BeginRun(hostCores int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	if _, err := s.db.Exec(
		`INSERT INTO calibration_runs (id, host_cores) VALUES (?, ?)`,
		id, hostCores,
	); err != nil {
		return "", fmt.Errorf("failed to record calibration run: %w", err)
	}
	return id, nil
}

// RecordSample stores one measurement.
func (s *SampleStore) RecordSample(runID, strategyID string, elementCount int, perItemNs float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(
		`INSERT INTO calibration_samples (run_id, strategy_id, element_count, per_item_ns)
		 VALUES (?, ?, ?, ?)`,
		runID, strategyID, elementCount, perItemNs,
	); err != nil {
		return fmt.Errorf("failed to record sample: %w", err)
	}
	return nil
}

// SamplesFor returns the recorded per-item costs for one strategy,
// newest first.
func (s *SampleStore) SamplesFor(strategyID string) ([]Sample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT run_id, strategy_id, element_count, per_item_ns, measured_at
		 FROM calibration_samples
		 WHERE strategy_id = ?
		 ORDER BY measured_at DESC, id DESC`,
		strategyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		var sm Sample
		if err := rows.Scan(&sm.RunID, &sm.StrategyID, &sm.ElementCount, &sm.PerItemNs, &sm.MeasuredAt); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

// StrategyIDs returns every strategy with at least one recorded sample.
func (s *SampleStore) StrategyIDs() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT DISTINCT strategy_id FROM calibration_samples ORDER BY strategy_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query strategies: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// RunCount returns how many benchmark runs are recorded.
func (s *SampleStore) RunCount() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM calibration_runs`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// DeriveCalibration folds measured medians into a copy of base: every
// strategy with samples gets its measured per-item cost; everything else
// keeps the base constants. Multipliers and tuning are never derived here,
// they stay explicit configuration.
func (s *SampleStore) DeriveCalibration(base *Calibration) (*Calibration, error) {
	ids, err := s.StrategyIDs()
	if err != nil {
		return nil, err
	}

	out := base.Clone()
	for _, id := range ids {
		samples, err := s.SamplesFor(id)
		if err != nil {
			return nil, err
		}
		if len(samples) == 0 {
			continue
		}

		med := medianPerItem(samples)
		cost := out.CostFor(id)
		cost.BaseCostNs = med
		out.Costs[id] = cost
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func medianPerItem(samples []Sample) float64 {
	values := make([]float64, len(samples))
	for i, sm := range samples {
		values[i] = sm.PerItemNs
	}
	sort.Float64s(values)

	mid := len(values) / 2
	if len(values)%2 == 1 {
		return values[mid]
	}
	return (values[mid-1] + values[mid]) / 2
}
