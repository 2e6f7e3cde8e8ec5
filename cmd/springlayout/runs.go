package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/springlayout/internal/analysis"
	"github.com/san-kum/springlayout/internal/export"
	"github.com/san-kum/springlayout/internal/geojson"
	"github.com/san-kum/springlayout/internal/graph"
	"github.com/san-kum/springlayout/internal/similarity"
	"github.com/san-kum/springlayout/internal/storage"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r2"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tNODES\tLINKS\tSTEPS\tCONVERGED\tPOTENTIAL\tSTRESS")

	for _, run := range runs {
		converged := "-"
		if run.ConvergedAt >= 0 {
			converged = fmt.Sprintf("@%d", run.ConvergedAt)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\t%.4g\t%.4f\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Nodes,
			run.Links,
			run.Steps,
			converged,
			run.Potential,
			run.Stress,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	trace, err := st.LoadEnergy(runID)
	if err != nil {
		return err
	}
	if len(trace) == 0 {
		return fmt.Errorf("no data to plot")
	}

	caption := "kinetic energy vs step"
	if logY {
		caption = "log10 kinetic energy vs step"
		for i, e := range trace {
			trace[i] = math.Log10(math.Max(e, 1e-12))
		}
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("steps: %d\n\n", len(trace))
	fmt.Println(asciigraph.Plot(trace,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	))
	return nil
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	ids, pos, err := st.LoadPositions(args[0])
	if err != nil {
		return err
	}
	points := make([]r2.Vec, len(ids))
	for i, id := range ids {
		points[i] = pos[id]
	}
	fmt.Print(analysis.LayoutToASCII(points, showWidth, showHeight))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	if exportOut == "" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}

	ids, pos, err := st.LoadPositions(runID)
	if err != nil {
		return err
	}
	fc, err := geojson.FromPositions(ids, pos)
	if err != nil {
		return err
	}
	return geojson.Write(exportOut, fc)
}

// runLinks rebuilds the links of a stored run from its input file. A run
// whose input is gone renders without links.
func runLinks(meta *storage.RunMetadata) []export.Edge {
	if meta.Input == "" {
		return nil
	}
	entries, err := similarity.LoadFile(meta.Input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "links unavailable: %v\n", err)
		return nil
	}
	policy, err := graph.ParseMergePolicy(meta.Merge)
	if err != nil {
		policy = graph.MergeMax
	}
	filter := similarity.Filter{Min: meta.Filter.MinSimilarity, Max: meta.Filter.MaxSimilarity}
	g, _, err := similarity.Build(entries, filter, graph.WithMergePolicy(policy))
	if err != nil {
		fmt.Fprintf(os.Stderr, "links unavailable: %v\n", err)
		return nil
	}
	return export.Edges(g)
}

func svgRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	var svg string
	if energy {
		trace, err := st.LoadEnergy(runID)
		if err != nil {
			return err
		}
		svg = export.EnergyToSVG(trace, svgWidth, svgHeight, "#00ff88")
	} else {
		ids, pos, err := st.LoadPositions(runID)
		if err != nil {
			return err
		}
		svg = export.LayoutToSVG(ids, pos, runLinks(meta), svgWidth, svgHeight, labels)
	}
	if svg == "" {
		return fmt.Errorf("nothing to render for %s", runID)
	}

	path := svgOut
	if path == "" {
		path = runID + ".svg"
	}
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
