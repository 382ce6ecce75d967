// Package main implements the forge command-line interface: strategy
// selection, code emission, calibration, and the interactive explorer.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"loopforge/internal/config"
	"loopforge/internal/costmodel"
	"loopforge/internal/engine"
	"loopforge/internal/logging"
	"loopforge/internal/selector"
)

var (
	// Global flags
	verbose         bool
	configPath      string
	calibrationPath string

	// Workload flags shared by the selection-driven commands
	flagCount       int
	flagPlatform    string
	flagCPUBound    bool
	flagRealTime    bool
	flagCores       int
	flagMaxTime     time.Duration
	flagMaxMemoryMB float64

	// Emission flags shared by emit and enhance
	flagCollection  string
	flagItem        string
	flagAction      string
	flagNullGuard   bool
	flagBoundsCheck bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "forge",
	Short: "loopforge - iteration strategy selection and code synthesis",
	Long: `forge picks the best iteration strategy for a described workload and
emits idiomatic loop code for the target platform.

Six strategies compete per workload: indexed loop, enumeration loop,
declarative query, parallel query, frame-budget loop, and lazy stream.
Each scores its own fitness for the element count, platform, and
requirements you describe; the highest score wins.

Run without arguments to start the interactive explorer.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The explorer owns the terminal; zap output would write over it.
		if cmd.Name() == "forge" || cmd.Name() == "explore" {
			return nil
		}
		return logging.Init(verbose)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: launch the interactive explorer
		return runExplore(cmd, args)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: forge.yaml)")
	rootCmd.PersistentFlags().StringVar(&calibrationPath, "calibration", "", "Calibration file override")

	// Select / rank flags
	registerWorkloadFlags(selectCmd)
	selectCmd.Flags().BoolVar(&selectJSON, "json", false, "Emit the selection as JSON")
	registerWorkloadFlags(rankCmd)
	rankCmd.Flags().BoolVar(&rankJSON, "json", false, "Emit the ranking as JSON")
	rankCmd.Flags().BoolVar(&rankMarkdown, "markdown", false, "Render the ranking as markdown")

	// Emit flags
	registerWorkloadFlags(emitCmd)
	registerCodegenFlags(emitCmd)
	emitCmd.Flags().StringVar(&emitStrategy, "strategy", "", "Emit a specific strategy instead of selecting one")
	emitCmd.Flags().StringSliceVar(&emitPlatforms, "platform-out", nil, "Platforms to emit for (repeatable)")
	emitCmd.Flags().BoolVar(&emitAll, "all", false, "Emit for every platform")
	emitCmd.Flags().StringVar(&emitOut, "out", "", "Directory to write fragments into instead of stdout")

	// Enhance flags
	registerWorkloadFlags(enhanceCmd)
	registerCodegenFlags(enhanceCmd)
	enhanceCmd.Flags().BoolVar(&enhanceWrite, "write", false, "Rewrite the file in place when a better shell wins")

	// Calibrate flags
	calibrateCmd.Flags().BoolVar(&calibrateSave, "save", false, "Save the derived calibration to the configured path")
	calibrateCmd.Flags().IntSliceVar(&calibrateSizes, "sizes", nil, "Element counts to measure (default: from config)")
	calibrateCmd.Flags().IntVar(&calibrateRounds, "rounds", 0, "Rounds per size (default: from config)")

	// Explore flags
	registerWorkloadFlags(exploreCmd)

	// Add commands to root
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(emitCmd)
	rootCmd.AddCommand(enhanceCmd)
	rootCmd.AddCommand(strategiesCmd)
	rootCmd.AddCommand(platformsCmd)
	rootCmd.AddCommand(calibrateCmd)
	rootCmd.AddCommand(exploreCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// registerWorkloadFlags wires the shared workload-description flags onto a
// command. The shared package vars are safe because one command runs per
// process.
func registerWorkloadFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&flagCount, "count", "n", 1_000, "Expected element count")
	cmd.Flags().StringVarP(&flagPlatform, "platform", "p", "", "Target platform (default: from config)")
	cmd.Flags().BoolVar(&flagCPUBound, "cpu-bound", false, "Workload is compute-dominated")
	cmd.Flags().BoolVar(&flagRealTime, "real-time", false, "Workload runs under a frame budget")
	cmd.Flags().IntVar(&flagCores, "cores", 0, "Available CPU cores (default: from config, then host)")
	cmd.Flags().DurationVar(&flagMaxTime, "max-time", 0, "Execution time ceiling (0 = none)")
	cmd.Flags().Float64Var(&flagMaxMemoryMB, "max-memory", 0, "Working set ceiling in MB (0 = none)")
}

// registerCodegenFlags wires the emission-shape flags onto a command.
func registerCodegenFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagCollection, "collection", "items", "Collection variable name in emitted code")
	cmd.Flags().StringVar(&flagItem, "item", "item", "Element variable name in emitted code")
	cmd.Flags().StringVar(&flagAction, "action", "process(item);", "Loop body fragment, substituted verbatim")
	cmd.Flags().BoolVar(&flagNullGuard, "null-guard", false, "Wrap the loop in a null check (default: from config)")
	cmd.Flags().BoolVar(&flagBoundsCheck, "bounds-check", false, "Add a bounds assertion (default: from config)")
}

// buildEngine loads configuration and calibration and assembles the
// selector every command runs against.
func buildEngine() (*config.Config, *costmodel.Estimator, *selector.Selector, error) {
	path := configPath
	if path == "" {
		path = "forge.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	calPath := cfg.Calibration.Path
	if calibrationPath != "" {
		calPath = calibrationPath
	}
	cal, err := costmodel.LoadCalibration(calPath)
	if err != nil {
		return nil, nil, nil, err
	}

	est := costmodel.NewEstimator(cal)
	sel := selector.New(selector.NewDefault(est))
	return cfg, est, sel, nil
}

// buildContext assembles the workload description from flags, falling back
// to config for platform and cores.
func buildContext(cfg *config.Config) (engine.IterationContext, error) {
	name := flagPlatform
	if name == "" {
		name = cfg.Selection.DefaultPlatform
	}
	platform, err := engine.ParsePlatform(name)
	if err != nil {
		return engine.IterationContext{}, err
	}

	cores := flagCores
	if cores == 0 {
		cores = cfg.Selection.DefaultCores
	}

	ictx := engine.IterationContext{
		ElementCount: flagCount,
		Platform:     platform,
		CPUBound:     flagCPUBound,
		Requirements: engine.Requirements{
			MaxTime:     flagMaxTime,
			MaxMemoryMB: flagMaxMemoryMB,
			RealTime:    flagRealTime,
		},
		Environment: engine.Environment{Cores: cores},
	}
	if err := ictx.Validate(); err != nil {
		return engine.IterationContext{}, err
	}
	return ictx, nil
}

// buildGenContext assembles the emission context from flags. The guard
// toggles fall back to config unless set explicitly on the command line.
func buildGenContext(cmd *cobra.Command, cfg *config.Config, platform engine.Platform) engine.CodeGenContext {
	nullGuard := cfg.Emission.NullGuard
	if cmd.Flags().Changed("null-guard") {
		nullGuard = flagNullGuard
	}
	boundsCheck := cfg.Emission.BoundsCheck
	if cmd.Flags().Changed("bounds-check") {
		boundsCheck = flagBoundsCheck
	}

	return engine.CodeGenContext{
		Collection:  flagCollection,
		Item:        flagItem,
		Action:      flagAction,
		Platform:    platform,
		NullGuard:   nullGuard,
		BoundsCheck: boundsCheck,
	}
}
