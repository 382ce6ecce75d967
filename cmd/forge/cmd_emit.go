// Package main implements the code emission CLI commands for forge.
// This file handles fragment emission and in-place fragment enhancement.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"loopforge/internal/emit"
	"loopforge/internal/engine"
)

var (
	emitStrategy  string
	emitPlatforms []string
	emitAll       bool
	emitOut       string
	enhanceWrite  bool
)

// emitCmd renders loop code for a workload
var emitCmd = &cobra.Command{
	Use:   "emit",
	Short: "Emit loop code for a workload",
	Long: `Selects the best strategy for the described workload (or uses --strategy
to pin one) and renders its loop shell for the target platform.

The --action fragment is substituted verbatim into the loop body; forge
never parses or rewrites it.

Examples:
  forge emit -n 500 -p server --collection users --item u --action "Save(u);"
  forge emit --strategy lazy-stream -p browser --action "yield item;"
  forge emit -n 200000 --cpu-bound --all --out ./generated`,
	RunE: runEmit,
}

// enhanceCmd upgrades an existing fragment to the winning strategy
var enhanceCmd = &cobra.Command{
	Use:   "enhance [file]",
	Short: "Upgrade an existing loop fragment to the best strategy",
	Long: `Reads a code fragment (from a file, or stdin when the argument is "-"),
identifies which strategy's loop shell it uses, re-runs selection for
the described workload, and emits a replacement when a different
strategy wins. A fragment already shaped like the winner passes
through unchanged.

Examples:
  forge enhance loop.cs -n 200000 -p server --cpu-bound --cores 8
  forge enhance hot.js -n 3000 -p browser --real-time --write
  cat loop.cs | forge enhance - -n 50000 -p server`,
	Args: cobra.ExactArgs(1),
	RunE: runEnhance,
}

func runEmit(cmd *cobra.Command, args []string) error {
	cfg, _, sel, err := buildEngine()
	if err != nil {
		return err
	}
	ictx, err := buildContext(cfg)
	if err != nil {
		return err
	}

	// Pin the strategy or let selection pick it.
	var emitter emit.CodeEmitter
	if emitStrategy != "" {
		strat, err := sel.Registry().Get(emitStrategy)
		if err != nil {
			return err
		}
		emitter = strat
	} else {
		selection, err := sel.Select(ictx)
		if err != nil {
			return err
		}
		emitter = selection.Strategy
		fmt.Fprintf(os.Stderr, "selected %s (priority %d)\n", selection.Strategy.ID(), selection.Priority)
	}

	platforms, err := resolveEmitPlatforms(ictx.Platform)
	if err != nil {
		return err
	}

	gctx := buildGenContext(cmd, cfg, ictx.Platform)
	fragments, err := emit.Batch(emitter, gctx, platforms)
	if err != nil {
		return err
	}

	if emitOut != "" {
		return writeFragments(emitter.ID(), emitOut, fragments)
	}

	// Iterate in canonical order so output is stable.
	single := len(fragments) == 1
	for _, platform := range engine.AllPlatforms() {
		code, ok := fragments[platform]
		if !ok {
			continue
		}
		if !single {
			fmt.Printf("── %s %s\n", platform, strings.Repeat("─", 40-len(platform)))
		}
		fmt.Print(code)
		if !single {
			fmt.Println()
		}
	}
	return nil
}

// resolveEmitPlatforms maps the emission flags onto a platform list. Nil
// means every platform; otherwise the explicit list or the workload's own
// platform.
func resolveEmitPlatforms(workload engine.Platform) ([]engine.Platform, error) {
	if emitAll {
		return nil, nil
	}
	if len(emitPlatforms) == 0 {
		return []engine.Platform{workload}, nil
	}
	out := make([]engine.Platform, 0, len(emitPlatforms))
	for _, name := range emitPlatforms {
		p, err := engine.ParsePlatform(name)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// writeFragments writes one file per platform into dir.
func writeFragments(strategyID, dir string, fragments map[engine.Platform]string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, platform := range engine.AllPlatforms() {
		code, ok := fragments[platform]
		if !ok {
			continue
		}
		name := fmt.Sprintf("%s.%s.%s", strategyID, platform, fileExt(platform))
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(code), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Printf("Wrote %s\n", path)
	}
	return nil
}

// fileExt picks the source extension for a platform's dialect.
func fileExt(p engine.Platform) string {
	if p == engine.PlatformBrowser {
		return "js"
	}
	return "cs"
}

func runEnhance(cmd *cobra.Command, args []string) error {
	path := args[0]

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("failed to read fragment: %w", err)
	}

	cfg, _, sel, err := buildEngine()
	if err != nil {
		return err
	}
	ictx, err := buildContext(cfg)
	if err != nil {
		return err
	}
	gctx := buildGenContext(cmd, cfg, ictx.Platform)

	enh, err := sel.Enhance(string(data), ictx, gctx)
	if err != nil {
		return err
	}

	if enh.DetectedID != "" {
		fmt.Printf("Detected: %s\n", enh.DetectedID)
	} else {
		fmt.Println("Detected: no known loop shell")
	}
	fmt.Printf("Winner:   %s (priority %d)\n", enh.WinnerID, enh.Priority)
	fmt.Printf("Reason:   %s\n", enh.Reason)

	if !enh.Changed {
		fmt.Println("\nFragment left untouched.")
		return nil
	}

	if enhanceWrite {
		if path == "-" {
			return fmt.Errorf("cannot rewrite stdin in place")
		}
		if err := os.WriteFile(path, []byte(enh.Code), 0644); err != nil {
			return fmt.Errorf("failed to rewrite fragment: %w", err)
		}
		fmt.Printf("\nRewrote %s\n", path)
		return nil
	}

	fmt.Println()
	fmt.Print(enh.Code)
	return nil
}
