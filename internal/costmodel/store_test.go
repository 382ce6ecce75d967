package costmodel

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"loopforge/internal/engine"
)

func newTestStore(t *testing.T) *SampleStore {
	t.Helper()

	store, err := OpenSampleStore(filepath.Join(t.TempDir(), "calibration.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSampleStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	runID, err := store.BeginRun(8)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	require.NoError(t, store.RecordSample(runID, engine.StrategyIndexedLoop, 1000, 2.5))
	require.NoError(t, store.RecordSample(runID, engine.StrategyIndexedLoop, 10_000, 2.1))
	require.NoError(t, store.RecordSample(runID, engine.StrategyLazyStream, 1000, 7.9))

	samples, err := store.SamplesFor(engine.StrategyIndexedLoop)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	for _, sm := range samples {
		require.Equal(t, runID, sm.RunID)
		require.Equal(t, engine.StrategyIndexedLoop, sm.StrategyID)
	}

	ids, err := store.StrategyIDs()
	require.NoError(t, err)
	require.Equal(t, []string{engine.StrategyIndexedLoop, engine.StrategyLazyStream}, ids)

	n, err := store.RunCount()
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestSampleStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.db")

	store, err := OpenSampleStore(path)
	require.NoError(t, err)
	runID, err := store.BeginRun(4)
	require.NoError(t, err)
	require.NoError(t, store.RecordSample(runID, engine.StrategyParallelQuery, 50_000, 1.4))
	require.NoError(t, store.Close())

	reopened, err := OpenSampleStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	samples, err := reopened.SamplesFor(engine.StrategyParallelQuery)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	require.Equal(t, 1.4, samples[0].PerItemNs)
}

func TestDeriveCalibrationUsesMedian(t *testing.T) {
	store := newTestStore(t)

	runID, err := store.BeginRun(8)
	require.NoError(t, err)
	for _, perItem := range []float64{10, 30, 20} {
		require.NoError(t, store.RecordSample(runID, engine.StrategyIndexedLoop, 1000, perItem))
	}

	derived, err := store.DeriveCalibration(DefaultCalibration())
	require.NoError(t, err)
	require.Equal(t, 20.0, derived.CostFor(engine.StrategyIndexedLoop).BaseCostNs)

	// Strategies without samples keep the base constants.
	base := DefaultCalibration()
	require.Equal(t,
		base.CostFor(engine.StrategyDeclarativeQuery),
		derived.CostFor(engine.StrategyDeclarativeQuery))
}

func TestDeriveCalibrationEvenSampleCount(t *testing.T) {
	store := newTestStore(t)

	runID, err := store.BeginRun(8)
	require.NoError(t, err)
	require.NoError(t, store.RecordSample(runID, engine.StrategyEnumerationLoop, 1000, 10))
	require.NoError(t, store.RecordSample(runID, engine.StrategyEnumerationLoop, 1000, 20))

	derived, err := store.DeriveCalibration(DefaultCalibration())
	require.NoError(t, err)
	require.Equal(t, 15.0, derived.CostFor(engine.StrategyEnumerationLoop).BaseCostNs)
}

func TestDeriveCalibrationLeavesBaseUntouched(t *testing.T) {
	store := newTestStore(t)

	runID, err := store.BeginRun(2)
	require.NoError(t, err)
	require.NoError(t, store.RecordSample(runID, engine.StrategyIndexedLoop, 1000, 99))

	base := DefaultCalibration()
	before := base.CostFor(engine.StrategyIndexedLoop).BaseCostNs

	_, err = store.DeriveCalibration(base)
	require.NoError(t, err)
	require.Equal(t, before, base.CostFor(engine.StrategyIndexedLoop).BaseCostNs)
}
