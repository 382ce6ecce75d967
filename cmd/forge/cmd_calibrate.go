// Package main implements the calibration CLI command for forge.
// This file handles benchmarking, sample persistence, and derivation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"loopforge/cmd/forge/ui"
	"loopforge/internal/costmodel"
)

var (
	calibrateSave   bool
	calibrateSizes  []int
	calibrateRounds int
)

// calibrateCmd benchmarks the strategies and derives cost constants
var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Benchmark strategies and derive calibration constants",
	Long: `Runs every registered strategy against synthetic CPU-bound workloads,
records the samples, and derives per-item cost constants from the
accumulated measurement history.

The derived constants replace the shipped per-item costs; platform
multipliers and parallel tuning stay explicit configuration. Without
--save this is a dry run that only reports what would change.

Examples:
  forge calibrate
  forge calibrate --sizes 1000,50000 --rounds 5 --save`,
	RunE: runCalibrate,
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	cfg, est, sel, err := buildEngine()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GetBenchTimeout())
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nCalibration cancelled")
		cancel()
	}()

	opts := costmodel.BenchOptions{
		Sizes:  cfg.Calibration.BenchSizes,
		Rounds: cfg.Calibration.BenchRounds,
	}
	if len(calibrateSizes) > 0 {
		opts.Sizes = calibrateSizes
	}
	if calibrateRounds > 0 {
		opts.Rounds = calibrateRounds
	}

	strategies := sel.Registry().All()
	runners := make([]costmodel.Runner, 0, len(strategies))
	for _, s := range strategies {
		runners = append(runners, s)
	}

	fmt.Printf("Benchmarking %d strategies, sizes %v, %d round(s) each\n",
		len(runners), opts.Sizes, opts.Rounds)

	results, err := costmodel.RunBench(ctx, runners, opts)
	if err != nil {
		return fmt.Errorf("benchmark failed: %w", err)
	}

	store, err := costmodel.OpenSampleStore(cfg.Calibration.SamplePath)
	if err != nil {
		return err
	}
	defer store.Close()

	runID, err := costmodel.StoreResults(store, runtime.NumCPU(), results)
	if err != nil {
		return fmt.Errorf("failed to store samples: %w", err)
	}
	fmt.Printf("Stored %d samples under run %s in %s\n", len(results), runID, store.Path())

	derived, err := store.DeriveCalibration(est.Calibration())
	if err != nil {
		return err
	}

	// Shipped vs measured per-item cost, using the full sample history.
	base := est.Calibration()
	table := ui.NewTable("Per-Item Cost (ns)", "STRATEGY", "SHIPPED", "MEASURED", "CONF").
		RightAlign(1, 2, 3)
	for _, s := range strategies {
		id := s.ID()
		table.AddRow(
			id,
			fmt.Sprintf("%.2f", base.CostFor(id).BaseCostNs),
			fmt.Sprintf("%.2f", derived.CostFor(id).BaseCostNs),
			fmt.Sprintf("%.2f", derived.CostFor(id).Confidence),
		)
	}
	fmt.Println(table.View(ui.DefaultStyles()))

	if !calibrateSave {
		fmt.Println("Dry run. Pass --save to write the derived calibration.")
		return nil
	}

	calPath := cfg.Calibration.Path
	if calibrationPath != "" {
		calPath = calibrationPath
	}
	if err := derived.Save(calPath); err != nil {
		return err
	}
	fmt.Printf("✓ Calibration saved to %s\n", calPath)
	return nil
}
