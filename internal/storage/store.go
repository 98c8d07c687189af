// Package storage persists simulation runs to disk: one directory per run
// holding metadata.json and the energy series as energies.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/raghav-m/mdcore/internal/config"
	"github.com/raghav-m/mdcore/internal/sim"
)

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
	ID          string             `json:"id"`
	Timestamp   time.Time          `json:"timestamp"`
	N           int                `json:"n"`
	BoxEdge     float64            `json:"box_edge"`
	Seed        int64              `json:"seed"`
	RCut        float64            `json:"r_cut"`
	RBuff       float64            `json:"r_buff"`
	Strategy    string             `json:"strategy"`
	StorageMode string             `json:"storage_mode"`
	Dt          float64            `json:"dt"`
	Steps       int                `json:"steps"`
	EnergyDrift float64            `json:"energy_drift"`
	Metrics     map[string]float64 `json:"metrics"`
}

func (s *Store) Save(cfg *config.Config, result *sim.Result) (string, error) {
	runID := fmt.Sprintf("run_%d", time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Timestamp:   time.Now(),
		N:           cfg.N,
		BoxEdge:     cfg.BoxEdge,
		Seed:        cfg.Seed,
		RCut:        cfg.RCut,
		RBuff:       cfg.RBuff,
		Strategy:    cfg.Strategy,
		StorageMode: cfg.StorageMode,
		Dt:          cfg.Dt,
		Steps:       result.StepsTaken,
		EnergyDrift: result.EnergyDrift,
		Metrics:     result.Metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "energies.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write([]string{"time", "potential", "kinetic", "total"}); err != nil {
		return "", err
	}
	for i := range result.Times {
		row := []string{
			strconv.FormatFloat(result.Times[i], 'f', 6, 64),
			strconv.FormatFloat(result.Potential[i], 'g', 12, 64),
			strconv.FormatFloat(result.Kinetic[i], 'g', 12, 64),
			strconv.FormatFloat(result.Total[i], 'g', 12, 64),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

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
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadEnergies reads a stored run's series back as (times, potential,
// kinetic, total).
func (s *Store) LoadEnergies(runID string) ([]float64, []float64, []float64, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "energies.csv"))
	if err != nil {
		return nil, nil, nil, nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if len(records) < 2 {
		return nil, nil, nil, nil, nil
	}

	n := len(records) - 1
	times := make([]float64, 0, n)
	pe := make([]float64, 0, n)
	ke := make([]float64, 0, n)
	total := make([]float64, 0, n)
	for _, record := range records[1:] {
		if len(record) != 4 {
			continue
		}
		t, err0 := strconv.ParseFloat(record[0], 64)
		p, err1 := strconv.ParseFloat(record[1], 64)
		k, err2 := strconv.ParseFloat(record[2], 64)
		e, err3 := strconv.ParseFloat(record[3], 64)
		if err0 != nil || err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		times = append(times, t)
		pe = append(pe, p)
		ke = append(ke, k)
		total = append(total, e)
	}
	return times, pe, ke, total, nil
}
