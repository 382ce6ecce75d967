package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"loopforge/internal/config"
	"loopforge/internal/engine"
)

// resetFlags restores every package-level flag var to its registration
// default so tests cannot contaminate each other.
func resetFlags() {
	configPath = ""
	calibrationPath = ""
	flagCount = 1_000
	flagPlatform = ""
	flagCPUBound = false
	flagRealTime = false
	flagCores = 0
	flagMaxTime = 0
	flagMaxMemoryMB = 0
	flagCollection = "items"
	flagItem = "item"
	flagAction = "process(item);"
	flagNullGuard = false
	flagBoundsCheck = false
	selectJSON = false
	rankJSON = false
	rankMarkdown = false
	emitStrategy = ""
	emitPlatforms = nil
	emitAll = false
	emitOut = ""
	enhanceWrite = false
	calibrateSave = false
	calibrateSizes = nil
	calibrateRounds = 0
}

func TestRunSelectPicksParallelForLargeCPUBound(t *testing.T) {
	resetFlags()
	flagCount = 200_000
	flagPlatform = "server"
	flagCPUBound = true
	flagCores = 8

	output := captureOutput(t, func() {
		if err := runSelect(&cobra.Command{}, nil); err != nil {
			t.Fatalf("runSelect returned error: %v", err)
		}
	})

	if !strings.Contains(output, "Selected: parallel-query") {
		t.Fatalf("expected parallel-query to win, got: %s", output)
	}
	if !strings.Contains(output, "Priority: 95") {
		t.Fatalf("expected priority 95, got: %s", output)
	}
}

func TestRunSelectJSON(t *testing.T) {
	resetFlags()
	flagCount = 500
	flagPlatform = "server"
	flagRealTime = true
	selectJSON = true

	output := captureOutput(t, func() {
		if err := runSelect(&cobra.Command{}, nil); err != nil {
			t.Fatalf("runSelect returned error: %v", err)
		}
	})

	if !strings.Contains(output, `"strategy": "indexed-loop"`) {
		t.Fatalf("expected indexed-loop in JSON output, got: %s", output)
	}
	if !strings.Contains(output, `"priority": 95`) {
		t.Fatalf("expected priority 95 in JSON output, got: %s", output)
	}
}

func TestRunSelectRejectsUnknownPlatform(t *testing.T) {
	resetFlags()
	flagPlatform = "pdp11"

	err := runSelect(&cobra.Command{}, nil)
	if !errors.Is(err, engine.ErrUnknownPlatform) {
		t.Fatalf("expected ErrUnknownPlatform, got %v", err)
	}
}

func TestRunRankOrdersCandidates(t *testing.T) {
	resetFlags()
	flagCount = 5_000
	flagPlatform = "browser"

	output := captureOutput(t, func() {
		if err := runRank(&cobra.Command{}, nil); err != nil {
			t.Fatalf("runRank returned error: %v", err)
		}
	})

	lazy := strings.Index(output, "lazy-stream")
	declarative := strings.Index(output, "declarative-query")
	if lazy < 0 || declarative < 0 {
		t.Fatalf("expected both browser candidates in output, got: %s", output)
	}
	if lazy > declarative {
		t.Fatalf("expected lazy-stream ranked above declarative-query:\n%s", output)
	}
}

func TestRunEmitWritesFragmentFiles(t *testing.T) {
	// Flag registration re-applies defaults to the shared vars, so the
	// command is built before the test sets them.
	cmd := emitTestCommand()
	resetFlags()
	dir := t.TempDir()
	emitStrategy = "indexed-loop"
	emitAll = true
	emitOut = dir

	output := captureOutput(t, func() {
		if err := runEmit(cmd, nil); err != nil {
			t.Fatalf("runEmit returned error: %v", err)
		}
	})

	if !strings.Contains(output, "Wrote") {
		t.Fatalf("expected write confirmations, got: %s", output)
	}

	js, err := os.ReadFile(filepath.Join(dir, "indexed-loop.browser.js"))
	if err != nil {
		t.Fatalf("browser fragment missing: %v", err)
	}
	if !strings.Contains(string(js), "for (let i = 0;") {
		t.Errorf("browser fragment has wrong shell:\n%s", js)
	}

	cs, err := os.ReadFile(filepath.Join(dir, "indexed-loop.unity.cs"))
	if err != nil {
		t.Fatalf("unity fragment missing: %v", err)
	}
	if !strings.Contains(string(cs), "for (int i = 0;") {
		t.Errorf("unity fragment has wrong shell:\n%s", cs)
	}
}

func TestRunEmitUnknownStrategy(t *testing.T) {
	cmd := emitTestCommand()
	resetFlags()
	emitStrategy = "bogus-loop"

	err := runEmit(cmd, nil)
	if !errors.Is(err, engine.ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestRunEmitSelectsWhenUnpinned(t *testing.T) {
	cmd := emitTestCommand()
	resetFlags()
	flagCount = 500
	flagPlatform = "server"
	flagRealTime = true

	output := captureOutput(t, func() {
		if err := runEmit(cmd, nil); err != nil {
			t.Fatalf("runEmit returned error: %v", err)
		}
	})

	if !strings.Contains(output, "selected indexed-loop") {
		t.Fatalf("expected selection note, got: %s", output)
	}
	if !strings.Contains(output, "for (int i = 0;") {
		t.Fatalf("expected the indexed shell, got: %s", output)
	}
}

func TestRunEnhanceRewritesInPlace(t *testing.T) {
	cmd := emitTestCommand()
	resetFlags()
	path := filepath.Join(t.TempDir(), "loop.cs")
	fragment := "foreach (var row in rows)\n{\n    Save(row);\n}\n"
	if err := os.WriteFile(path, []byte(fragment), 0644); err != nil {
		t.Fatal(err)
	}

	flagCount = 200_000
	flagPlatform = "server"
	flagCPUBound = true
	flagCores = 8
	enhanceWrite = true

	output := captureOutput(t, func() {
		if err := runEnhance(cmd, []string{path}); err != nil {
			t.Fatalf("runEnhance returned error: %v", err)
		}
	})

	if !strings.Contains(output, "Detected: enumeration-loop") {
		t.Fatalf("expected shell detection in output, got: %s", output)
	}
	if !strings.Contains(output, "Winner:   parallel-query") {
		t.Fatalf("expected parallel-query to win, got: %s", output)
	}

	rewritten, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(rewritten), ".AsParallel()") {
		t.Errorf("file should hold the parallel shell now:\n%s", rewritten)
	}
	if !strings.Contains(string(rewritten), "items") {
		t.Errorf("rewritten fragment should use the flag collection name:\n%s", rewritten)
	}
}

func TestRunEnhanceLeavesWinnerUntouched(t *testing.T) {
	cmd := emitTestCommand()
	resetFlags()
	path := filepath.Join(t.TempDir(), "loop.cs")
	fragment := "for (int i = 0; i < items.Count; i++)\n{\n    var item = items[i];\n    process(item);\n}\n"
	if err := os.WriteFile(path, []byte(fragment), 0644); err != nil {
		t.Fatal(err)
	}

	flagCount = 500
	flagPlatform = "server"
	flagRealTime = true
	enhanceWrite = true

	output := captureOutput(t, func() {
		if err := runEnhance(cmd, []string{path}); err != nil {
			t.Fatalf("runEnhance returned error: %v", err)
		}
	})

	if !strings.Contains(output, "Fragment left untouched") {
		t.Fatalf("expected a pass-through, got: %s", output)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(after) != fragment {
		t.Error("pass-through must not modify the file")
	}
}

func TestRunStrategiesListsAll(t *testing.T) {
	resetFlags()

	output := captureOutput(t, func() {
		if err := runStrategies(&cobra.Command{}, nil); err != nil {
			t.Fatalf("runStrategies returned error: %v", err)
		}
	})

	for _, id := range []string{
		"indexed-loop", "enumeration-loop", "declarative-query",
		"parallel-query", "frame-budget-loop", "lazy-stream",
	} {
		if !strings.Contains(output, id) {
			t.Errorf("strategy listing missing %s", id)
		}
	}
}

func TestRunPlatformsListsAll(t *testing.T) {
	resetFlags()

	output := captureOutput(t, func() {
		if err := runPlatforms(&cobra.Command{}, nil); err != nil {
			t.Fatalf("runPlatforms returned error: %v", err)
		}
	})

	for _, p := range engine.AllPlatforms() {
		if !strings.Contains(output, string(p)) {
			t.Errorf("platform listing missing %s", p)
		}
	}
	if !strings.Contains(output, "frame-budget-loop") {
		t.Error("unity row should name frame-budget-loop")
	}
}

func TestRunCalibrateDryRun(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	t.Setenv("FORGE_SAMPLES", filepath.Join(dir, "samples.db"))
	calibrateSizes = []int{200}
	calibrateRounds = 1

	output := captureOutput(t, func() {
		if err := runCalibrate(&cobra.Command{}, nil); err != nil {
			t.Fatalf("runCalibrate returned error: %v", err)
		}
	})

	if !strings.Contains(output, "Stored 6 samples") {
		t.Fatalf("expected one sample per strategy, got: %s", output)
	}
	if !strings.Contains(output, "Dry run") {
		t.Fatalf("expected dry-run notice without --save, got: %s", output)
	}
	if _, err := os.Stat(filepath.Join(dir, "samples.db")); err != nil {
		t.Errorf("sample store missing: %v", err)
	}
}

func TestBuildContextFallsBackToConfig(t *testing.T) {
	resetFlags()
	cfg := config.DefaultConfig()
	cfg.Selection.DefaultPlatform = "unity"
	cfg.Selection.DefaultCores = 4

	ictx, err := buildContext(cfg)
	if err != nil {
		t.Fatalf("buildContext returned error: %v", err)
	}
	if ictx.Platform != engine.PlatformUnity {
		t.Errorf("expected config platform unity, got %s", ictx.Platform)
	}
	if ictx.Environment.Cores != 4 {
		t.Errorf("expected config cores 4, got %d", ictx.Environment.Cores)
	}

	flagPlatform = "wasm"
	flagCores = 2
	ictx, err = buildContext(cfg)
	if err != nil {
		t.Fatalf("buildContext returned error: %v", err)
	}
	if ictx.Platform != engine.PlatformBrowser {
		t.Errorf("flag alias should beat config, got %s", ictx.Platform)
	}
	if ictx.Environment.Cores != 2 {
		t.Errorf("flag cores should beat config, got %d", ictx.Environment.Cores)
	}
}

func TestBuildGenContextGuardFallback(t *testing.T) {
	resetFlags()
	cfg := config.DefaultConfig()
	cfg.Emission.NullGuard = true

	cmd := emitTestCommand()
	gctx := buildGenContext(cmd, cfg, engine.PlatformDotnet)
	if !gctx.NullGuard {
		t.Error("config null guard should apply when the flag is untouched")
	}

	cmd = emitTestCommand()
	if err := cmd.Flags().Parse([]string{"--null-guard=false"}); err != nil {
		t.Fatal(err)
	}
	gctx = buildGenContext(cmd, cfg, engine.PlatformDotnet)
	if gctx.NullGuard {
		t.Error("an explicit flag should beat the config default")
	}
}

// emitTestCommand builds a throwaway command carrying the emission flags so
// buildGenContext can consult Changed().
func emitTestCommand() *cobra.Command {
	cmd := &cobra.Command{}
	registerWorkloadFlags(cmd)
	registerCodegenFlags(cmd)
	return cmd
}

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origOut := os.Stdout
	origErr := os.Stderr
	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, rOut)
		_, _ = io.Copy(&buf, rErr)
		done <- buf.String()
	}()

	fn()

	_ = wOut.Close()
	_ = wErr.Close()
	os.Stdout = origOut
	os.Stderr = origErr
	return <-done
}
