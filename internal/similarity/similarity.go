// Package similarity turns an artist similarity table into a layout graph.
//
// The input is a JSON array of entries:
//
//	[{"artist": "A", "similar_artists": [{"name": "B", "similarity": 0.8}]}]
package similarity

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/san-kum/springlayout/internal/graph"
)

type Similar struct {
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
}

type Entry struct {
	Artist  string    `json:"artist"`
	Similar []Similar `json:"similar_artists"`
}

// Filter keeps pairs whose similarity lies strictly between Min and Max.
type Filter struct {
	Min float64
	Max float64
}

func DefaultFilter() Filter {
	return Filter{Min: 0.1, Max: 1}
}

func (f Filter) Keep(s float64) bool {
	return s > f.Min && s < f.Max
}

// Stats counts what Build did with the table.
type Stats struct {
	Entries  int
	Pairs    int
	Kept     int
	Filtered int
	// Skipped counts self references and entries with an empty name.
	Skipped int
	Nodes   int
	Links   int
}

func Load(r io.Reader) ([]Entry, error) {
	var entries []Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode similarity table: %w", err)
	}
	return entries, nil
}

func LoadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Build adds one link per kept pair. Nodes come only from kept links, so an
// artist whose pairs are all filtered or skipped is left out of the graph.
func Build(entries []Entry, filter Filter, opts ...graph.Option) (*graph.Graph, Stats, error) {
	g := graph.New(opts...)
	stats := Stats{Entries: len(entries)}

	for _, e := range entries {
		if e.Artist == "" {
			stats.Skipped++
			continue
		}
		for _, s := range e.Similar {
			stats.Pairs++
			if s.Name == "" || s.Name == e.Artist {
				stats.Skipped++
				continue
			}
			if !filter.Keep(s.Similarity) {
				stats.Filtered++
				continue
			}
			if _, err := g.AddLink(e.Artist, s.Name, s.Similarity); err != nil {
				return nil, stats, fmt.Errorf("link %q-%q: %w", e.Artist, s.Name, err)
			}
			stats.Kept++
		}
	}

	stats.Nodes = g.NodeCount()
	stats.Links = g.LinkCount()
	return g, stats, nil
}
