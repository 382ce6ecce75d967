// Package main implements the selection CLI commands for forge.
// This file handles single-winner selection and full candidate ranking.
package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"loopforge/cmd/forge/ui"
	"loopforge/internal/engine"
	"loopforge/internal/selector"
)

var (
	selectJSON   bool
	rankJSON     bool
	rankMarkdown bool
)

// selectCmd picks the best strategy for a described workload
var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Select the best iteration strategy for a workload",
	Long: `Scores every applicable strategy against the described workload and
reports the winner.

Examples:
  forge select -n 500 -p server --real-time
  forge select -n 200000 -p server --cpu-bound --cores 8
  forge select -n 3000 -p unity --real-time --json`,
	RunE: runSelect,
}

// rankCmd shows the full candidate ranking
var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank every applicable strategy for a workload",
	Long: `Shows all applicable strategies ordered by fitness, with the cost
model's time, memory, and confidence projections for each.

Examples:
  forge rank -n 5000 -p browser
  forge rank -n 200000 -p server --cpu-bound --markdown`,
	RunE: runRank,
}

// candidateView is the JSON shape for one ranked candidate.
type candidateView struct {
	Strategy    string  `json:"strategy"`
	Name        string  `json:"name"`
	Priority    int     `json:"priority"`
	EstimatedMs float64 `json:"estimated_ms"`
	MemoryMB    float64 `json:"memory_mb"`
	Confidence  float64 `json:"confidence"`
	Fits        bool    `json:"meets_requirements"`
}

func viewOf(c selector.Candidate) candidateView {
	return candidateView{
		Strategy:    c.Strategy.ID(),
		Name:        c.Strategy.Name(),
		Priority:    c.Priority,
		EstimatedMs: float64(c.Estimate.Time.Microseconds()) / 1000.0,
		MemoryMB:    c.Estimate.MemoryMB,
		Confidence:  c.Estimate.Confidence,
		Fits:        c.Estimate.MeetsRequirements,
	}
}

func runSelect(cmd *cobra.Command, args []string) error {
	cfg, _, sel, err := buildEngine()
	if err != nil {
		return err
	}
	ictx, err := buildContext(cfg)
	if err != nil {
		return err
	}

	selection, err := sel.Select(ictx)
	if err != nil {
		return err
	}

	if selectJSON {
		out := struct {
			Context string        `json:"context"`
			Winner  candidateView `json:"winner"`
		}{
			Context: ictx.String(),
			Winner: viewOf(selector.Candidate{
				Strategy: selection.Strategy,
				Priority: selection.Priority,
				Estimate: selection.Estimate,
			}),
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Workload: %s\n", ictx)
	fmt.Println(strings.Repeat("─", 50))
	fmt.Printf("Selected: %s (%s)\n", selection.Strategy.ID(), selection.Strategy.Name())
	fmt.Printf("Priority: %d\n", selection.Priority)
	fmt.Printf("Estimate: %v, %.2f MB (confidence %.2f)\n",
		selection.Estimate.Time.Round(time.Microsecond),
		selection.Estimate.MemoryMB,
		selection.Estimate.Confidence)
	if selection.Estimate.MeetsRequirements {
		fmt.Println("✓ Meets stated requirements")
	} else {
		fmt.Println("✗ Projected to miss stated requirements")
	}
	if len(selection.Candidates) > 1 {
		fmt.Printf("\nBeat %d other candidate(s). Use 'forge rank' for the full field.\n",
			len(selection.Candidates)-1)
	}
	return nil
}

func runRank(cmd *cobra.Command, args []string) error {
	cfg, _, sel, err := buildEngine()
	if err != nil {
		return err
	}
	ictx, err := buildContext(cfg)
	if err != nil {
		return err
	}

	ranked, err := sel.Rank(ictx)
	if err != nil {
		return err
	}

	if rankJSON {
		views := make([]candidateView, 0, len(ranked))
		for _, c := range ranked {
			views = append(views, viewOf(c))
		}
		data, err := json.MarshalIndent(views, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	if rankMarkdown {
		return renderRankMarkdown(ictx, ranked)
	}

	table := ui.NewTable(fmt.Sprintf("Ranking for %s", ictx),
		"#", "STRATEGY", "PRIORITY", "EST TIME", "MEMORY", "CONF", "FITS").
		RightAlign(2, 3, 4, 5)
	for i, c := range ranked {
		table.AddRow(
			fmt.Sprintf("%d", i+1),
			c.Strategy.ID(),
			fmt.Sprintf("%d", c.Priority),
			c.Estimate.Time.Round(time.Microsecond).String(),
			fmt.Sprintf("%.2f MB", c.Estimate.MemoryMB),
			fmt.Sprintf("%.2f", c.Estimate.Confidence),
			fitsMark(c.Estimate),
		)
	}
	fmt.Println(table.View(ui.DefaultStyles()))
	return nil
}

// renderRankMarkdown renders the ranking as a markdown table through the
// terminal renderer.
func renderRankMarkdown(ictx engine.IterationContext, ranked []selector.Candidate) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Strategy Ranking\n\nWorkload: `%s`\n\n", ictx)
	b.WriteString("| # | Strategy | Priority | Est Time | Memory | Confidence | Fits |\n")
	b.WriteString("|---|----------|---------:|---------:|-------:|-----------:|------|\n")
	for i, c := range ranked {
		fmt.Fprintf(&b, "| %d | %s | %d | %v | %.2f MB | %.2f | %s |\n",
			i+1, c.Strategy.ID(), c.Priority,
			c.Estimate.Time.Round(time.Microsecond),
			c.Estimate.MemoryMB, c.Estimate.Confidence, fitsMark(c.Estimate))
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("failed to build markdown renderer: %w", err)
	}
	out, err := renderer.Render(b.String())
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	fmt.Print(out)
	return nil
}

func fitsMark(est engine.PerformanceEstimate) string {
	if est.MeetsRequirements {
		return "✓"
	}
	return "✗"
}
