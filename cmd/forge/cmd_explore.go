// Package main implements the interactive explorer command for forge.
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"loopforge/cmd/forge/ui"
	"loopforge/internal/costmodel"
	"loopforge/internal/engine"
)

// exploreCmd launches the interactive strategy explorer
var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Interactively explore strategy selection",
	Long: `Opens a terminal UI where the workload description is live-editable:
step the element count, cycle platforms, and toggle constraints while
the ranking and emitted code update in place.

Key bindings are shown in the footer. 'y' copies the highlighted
strategy's code to the clipboard.`,
	RunE: runExplore,
}

func runExplore(cmd *cobra.Command, args []string) error {
	cfg, est, sel, err := buildEngine()
	if err != nil {
		return err
	}

	ictx, err := buildContext(cfg)
	if err != nil {
		return err
	}
	// Bare `forge` and `forge explore` without -n start at the configured
	// exploration count instead of the select/emit default.
	if !cmd.Flags().Changed("count") {
		ictx.ElementCount = cfg.Explorer.InitialCount
	}

	gctx := engine.CodeGenContext{
		Collection:  flagCollection,
		Item:        flagItem,
		Action:      flagAction,
		Platform:    ictx.Platform,
		NullGuard:   cfg.Emission.NullGuard,
		BoundsCheck: cfg.Emission.BoundsCheck,
	}

	// Live calibration reload keeps the explorer's estimates current while
	// `forge calibrate --save` runs elsewhere.
	if cfg.Calibration.Watch {
		calPath := cfg.Calibration.Path
		if calibrationPath != "" {
			calPath = calibrationPath
		}
		watcher, werr := costmodel.NewCalibrationWatcher(calPath, est)
		if werr == nil {
			wctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if werr = watcher.Start(wctx); werr == nil {
				defer watcher.Stop()
			}
		}
		if werr != nil {
			fmt.Fprintf(os.Stderr, "calibration watch disabled: %v\n", werr)
		}
	}

	styles := ui.NewStyles(ui.ThemeFromName(cfg.Explorer.Theme))
	p := tea.NewProgram(
		ui.NewExplorerModel(sel, ictx, gctx, styles),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err = p.Run()
	return err
}
