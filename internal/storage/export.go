package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/raghav-m/mdcore/internal/config"
	"github.com/raghav-m/mdcore/internal/sim"
)

type ExportData struct {
	N           int                `json:"n"`
	BoxEdge     float64            `json:"box_edge"`
	RCut        float64            `json:"r_cut"`
	RBuff       float64            `json:"r_buff"`
	Strategy    string             `json:"strategy"`
	Dt          float64            `json:"dt"`
	Steps       int                `json:"steps"`
	Times       []float64          `json:"times"`
	Potential   []float64          `json:"potential"`
	Kinetic     []float64          `json:"kinetic"`
	Total       []float64          `json:"total"`
	EnergyDrift float64            `json:"energy_drift"`
	Metrics     map[string]float64 `json:"metrics"`
}

func ExportJSON(w io.Writer, cfg *config.Config, result *sim.Result) error {
	data := ExportData{
		N:           cfg.N,
		BoxEdge:     cfg.BoxEdge,
		RCut:        cfg.RCut,
		RBuff:       cfg.RBuff,
		Strategy:    cfg.Strategy,
		Dt:          cfg.Dt,
		Steps:       result.StepsTaken,
		Times:       result.Times,
		Potential:   result.Potential,
		Kinetic:     result.Kinetic,
		Total:       result.Total,
		EnergyDrift: result.EnergyDrift,
		Metrics:     result.Metrics,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func ExportJSONFile(path string, cfg *config.Config, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return ExportJSON(file, cfg, result)
}
