package main

import (
	"bytes"
	"log/slog"
	"regexp"
	"testing"

	"github.com/san-kum/springlayout/internal/config"
	"github.com/san-kum/springlayout/internal/dynamo"
	"github.com/spf13/cobra"
)

func TestParseGrid(t *testing.T) {
	names, ranges, err := parseGrid([]string{"theta=0.5, 1", "drag=0.9"})
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "theta" || len(ranges[0]) != 2 || ranges[0][1] != 1 || ranges[1][0] != 0.9 {
		t.Errorf("parsed %v %v", names, ranges)
	}

	for _, bad := range []string{"theta", "=1", "theta=", "theta=a,b"} {
		if _, _, err := parseGrid([]string{bad}); err == nil {
			t.Errorf("%q accepted", bad)
		}
	}
}

func TestProgressLogsFromIterationZero(t *testing.T) {
	var buf bytes.Buffer
	p := progress{every: 10, logger: slog.New(slog.NewTextHandler(&buf, nil))}
	for step := 1; step <= 25; step++ {
		p.OnStep(nil, dynamo.StepStats{Step: step})
	}

	got := regexp.MustCompile(`iteration=(\d+)`).FindAllStringSubmatch(buf.String(), -1)
	want := []string{"0", "10", "20"}
	if len(got) != len(want) {
		t.Fatalf("logged %d lines, want %d:\n%s", len(got), len(want), buf.String())
	}
	for i := range want {
		if got[i][1] != want[i] {
			t.Errorf("line %d logged iteration %s, want %s", i, got[i][1], want[i])
		}
	}

	buf.Reset()
	progress{logger: slog.New(slog.NewTextHandler(&buf, nil))}.OnStep(nil, dynamo.StepStats{Step: 1})
	if buf.Len() != 0 {
		t.Errorf("disabled progress logged %q", buf.String())
	}
}

func TestRunName(t *testing.T) {
	tests := map[string]string{
		"data/artists.json": "artists",
		"top50":             "top50",
		"":                  "layout",
	}
	for in, want := range tests {
		if got := runName(in); got != want {
			t.Errorf("runName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadConfigOnlyChangedFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "run"}
	layoutFlags(cmd)
	if err := cmd.Flags().Parse([]string{"--preset", "fast", "--drag", "0.7"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(cmd, []string{"in.json"})
	if err != nil {
		t.Fatal(err)
	}
	fast := config.GetPreset("fast")
	if cfg.Input != "in.json" || cfg.Physics.Drag != 0.7 {
		t.Errorf("explicit values not applied: %+v", cfg)
	}
	if cfg.Physics.Theta != fast.Physics.Theta || cfg.Iterations != fast.Iterations {
		t.Errorf("unset flags overrode the preset: %+v", cfg)
	}
}

func TestLoadConfigRejects(t *testing.T) {
	cmd := &cobra.Command{Use: "run"}
	layoutFlags(cmd)
	cmd.Flags().Parse([]string{"--preset", "warp"})
	if _, err := loadConfig(cmd, nil); err == nil {
		t.Error("unknown preset accepted")
	}

	cmd = &cobra.Command{Use: "run"}
	layoutFlags(cmd)
	preset = ""
	cmd.Flags().Parse([]string{"--theta", "3"})
	if _, err := loadConfig(cmd, nil); err == nil {
		t.Error("theta 3 accepted")
	}
}

func TestRingGraph(t *testing.T) {
	g := ringGraph(50, 1)
	if g.NodeCount() != 50 {
		t.Errorf("expected 50 nodes, got %d", g.NodeCount())
	}
	if g.LinkCount() < 50 {
		t.Errorf("ring incomplete: %d links", g.LinkCount())
	}
	if len(g.Components()) != 1 {
		t.Error("ring is not connected")
	}
}
