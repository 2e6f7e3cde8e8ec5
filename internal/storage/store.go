package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/springlayout/internal/config"
	"github.com/san-kum/springlayout/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	metadataFile  = "metadata.json"
	energyFile    = "energy.csv"
	positionsFile = "positions.csv"
)

// Store keeps one directory per layout run under baseDir.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Input       string               `json:"input,omitempty"`
	Merge       string               `json:"merge,omitempty"`
	Filter      config.FilterConfig  `json:"filter"`
	Timestamp   time.Time            `json:"timestamp"`
	Seed        int64                `json:"seed"`
	Nodes       int                  `json:"nodes"`
	Links       int                  `json:"links"`
	Steps       int                  `json:"steps"`
	Converged   bool                 `json:"converged"`
	ConvergedAt int                  `json:"converged_at"`
	Potential   float64              `json:"potential"`
	Stress      float64              `json:"stress"`
	Unstable    []string             `json:"unstable,omitempty"`
	Params      config.PhysicsConfig `json:"params"`
	Metrics     map[string]float64   `json:"metrics"`
}

// Save writes metadata, the energy trace and the final positions of a run.
// Fields of meta that the result already carries are overwritten. ids fixes
// the row order of positions.csv.
func (s *Store) Save(meta RunMetadata, ids []string, result *sim.Result) (string, error) {
	now := time.Now()
	if meta.Name == "" {
		meta.Name = "layout"
	}
	meta.ID = fmt.Sprintf("%s_%d_%s", meta.Name, now.Unix(), uuid.NewString()[:8])
	meta.Timestamp = now
	meta.Seed = result.Seed
	meta.Steps = result.Steps
	meta.Converged = result.Converged
	meta.ConvergedAt = result.ConvergedAt
	meta.Potential = result.Potential
	meta.Unstable = result.Health.Unstable
	meta.Metrics = result.Metrics

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	energy := [][]string{{"step", "energy"}}
	for i, e := range result.Energy {
		energy = append(energy, []string{strconv.Itoa(i + 1), formatFloat(e)})
	}
	if err := writeCSV(filepath.Join(runDir, energyFile), energy); err != nil {
		return "", err
	}

	positions := [][]string{{"id", "x", "y"}}
	for _, id := range ids {
		p, ok := result.Positions[id]
		if !ok {
			return "", fmt.Errorf("no position for %q", id)
		}
		positions = append(positions, []string{id, formatFloat(p.X), formatFloat(p.Y)})
	}
	if err := writeCSV(filepath.Join(runDir, positionsFile), positions); err != nil {
		return "", err
	}

	return meta.ID, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return err
	}
	return f.Sync()
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

// List returns the metadata of every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadEnergy returns the per-step kinetic energy of a run.
func (s *Store) LoadEnergy(runID string) ([]float64, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, energyFile))
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []float64{}, nil
	}

	energy := make([]float64, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < 2 {
			continue
		}
		e, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			continue
		}
		energy = append(energy, e)
	}
	return energy, nil
}

// LoadPositions returns node ids in saved order and their final positions.
func (s *Store) LoadPositions(runID string) ([]string, map[string]r2.Vec, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, positionsFile))
	if err != nil {
		return nil, nil, err
	}

	ids := make([]string, 0, len(records))
	pos := make(map[string]r2.Vec, len(records))
	for i, record := range records {
		if i == 0 || len(record) < 3 {
			continue
		}
		x, errX := strconv.ParseFloat(record[1], 64)
		y, errY := strconv.ParseFloat(record[2], 64)
		if errX != nil || errY != nil {
			return nil, nil, fmt.Errorf("%s line %d: bad coordinates", positionsFile, i+1)
		}
		ids = append(ids, record[0])
		pos[record[0]] = r2.Vec{X: x, Y: y}
	}
	return ids, pos, nil
}
