// Package geojson serializes a layout as a FeatureCollection of points so
// map tooling can render it.
package geojson

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	DefaultSymbolZoom = 2
	DefaultOwnerID    = 1
)

type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

type Properties struct {
	Name       string `json:"name"`
	SymbolZoom int    `json:"symbolzoom"`
	LabelID    string `json:"labelId"`
	OwnerID    int    `json:"ownerId"`
}

type Feature struct {
	Type       string     `json:"type"`
	Geometry   Geometry   `json:"geometry"`
	Properties Properties `json:"properties"`
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// FromPositions emits one feature per id, in the order given. Label ids are
// 1-based and follow that order.
func FromPositions(ids []string, positions map[string]r2.Vec) (*FeatureCollection, error) {
	fc := &FeatureCollection{Type: "FeatureCollection", Features: make([]Feature, 0, len(ids))}
	for i, id := range ids {
		p, ok := positions[id]
		if !ok {
			return nil, fmt.Errorf("no position for %q", id)
		}
		fc.Features = append(fc.Features, Feature{
			Type:     "Feature",
			Geometry: Geometry{Type: "Point", Coordinates: [2]float64{p.X, p.Y}},
			Properties: Properties{
				Name:       id,
				SymbolZoom: DefaultSymbolZoom,
				LabelID:    strconv.Itoa(i + 1),
				OwnerID:    DefaultOwnerID,
			},
		})
	}
	return fc, nil
}

// Positions reads the coordinates back, keyed by feature name, along with the
// names in file order.
func (fc *FeatureCollection) Positions() ([]string, map[string]r2.Vec) {
	ids := make([]string, len(fc.Features))
	pos := make(map[string]r2.Vec, len(fc.Features))
	for i, f := range fc.Features {
		ids[i] = f.Properties.Name
		pos[f.Properties.Name] = r2.Vec{X: f.Geometry.Coordinates[0], Y: f.Geometry.Coordinates[1]}
	}
	return ids, pos
}

func Encode(w io.Writer, fc *FeatureCollection) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(fc)
}

func Write(path string, fc *FeatureCollection) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, fc); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

func Read(path string) (*FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fc FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("%s: not a FeatureCollection (type %q)", path, fc.Type)
	}
	return &fc, nil
}
