// Package main implements the inventory CLI commands for forge.
// This file handles the strategy and platform listings.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"loopforge/cmd/forge/ui"
	"loopforge/internal/engine"
)

// strategiesCmd lists the registered strategies
var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the registered iteration strategies",
	RunE:  runStrategies,
}

// platformsCmd lists the known platforms
var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List the known target platforms",
	RunE:  runPlatforms,
}

func runStrategies(cmd *cobra.Command, args []string) error {
	_, _, sel, err := buildEngine()
	if err != nil {
		return err
	}

	table := ui.NewTable("Registered Strategies",
		"ID", "NAME", "PLATFORMS", "OPTIMAL", "PAR", "ASYNC", "RT")
	for _, s := range sel.Registry().All() {
		table.AddRow(
			s.ID(),
			s.Name(),
			platformList(s.Platforms()),
			optimalBand(s.Profile().Optimal),
			yesNo(s.Profile().SupportsParallel),
			yesNo(s.Profile().SupportsAsync),
			yesNo(s.Profile().RealTimeSafe),
		)
	}
	fmt.Println(table.View(ui.DefaultStyles()))

	fmt.Println("Descriptions:")
	for _, s := range sel.Registry().All() {
		fmt.Printf("  %-18s %s\n", s.ID(), s.Description())
	}
	return nil
}

func runPlatforms(cmd *cobra.Command, args []string) error {
	_, _, sel, err := buildEngine()
	if err != nil {
		return err
	}

	table := ui.NewTable("Target Platforms", "PLATFORM", "SUPPORTED BY")
	for _, p := range engine.AllPlatforms() {
		var ids []string
		for _, s := range sel.Registry().All() {
			if s.Platforms().Supports(p) {
				ids = append(ids, s.ID())
			}
		}
		table.AddRow(string(p), strings.Join(ids, ", "))
	}
	fmt.Println(table.View(ui.DefaultStyles()))

	fmt.Println("Notes:")
	fmt.Printf("  %s is the reference dialect; emission falls back to it when a\n", engine.PlatformDotnet)
	fmt.Println("  strategy has no dedicated template for the requested platform.")
	return nil
}

// platformList renders a strategy's compatibility set for the table.
func platformList(c engine.PlatformCompatibility) string {
	list := c.List()
	if list == nil {
		return "all"
	}
	names := make([]string, 0, len(list))
	for _, p := range list {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}

// optimalBand renders an element-count band as text.
func optimalBand(r engine.OptimalRange) string {
	if r.Max == 0 {
		return fmt.Sprintf("%s+", compactCount(r.Min))
	}
	return fmt.Sprintf("%s-%s", compactCount(r.Min), compactCount(r.Max))
}

// compactCount shortens large counts to 10k / 1M form.
func compactCount(n int) string {
	switch {
	case n >= 1_000_000 && n%1_000_000 == 0:
		return fmt.Sprintf("%dM", n/1_000_000)
	case n >= 1_000 && n%1_000 == 0:
		return fmt.Sprintf("%dk", n/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
