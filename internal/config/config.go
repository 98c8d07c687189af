package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultN       = 64
	DefaultBoxEdge = 10.0
	DefaultRCut    = 2.5
	DefaultRBuff   = 0.4
	DefaultDt      = 0.002
	DefaultSteps   = 1000
	DefaultEpsilon = 1.0
	DefaultSigma   = 1.0
	DefaultTemp    = 0.5
)

type Config struct {
	N       int     `yaml:"n"`
	BoxEdge float64 `yaml:"box_edge"`
	Seed    int64   `yaml:"seed"`

	RCut        float64 `yaml:"r_cut"`
	RBuff       float64 `yaml:"r_buff"`
	Every       uint64  `yaml:"every"`
	Strategy    string  `yaml:"strategy"`
	StorageMode string  `yaml:"storage_mode"`

	Epsilon     float64 `yaml:"epsilon"`
	Sigma       float64 `yaml:"sigma"`
	Temperature float64 `yaml:"temperature"`

	Dt        float64 `yaml:"dt"`
	Steps     int     `yaml:"steps"`
	SortEvery int     `yaml:"sort_every"`
}

func DefaultConfig() *Config {
	return &Config{
		N:           DefaultN,
		BoxEdge:     DefaultBoxEdge,
		RCut:        DefaultRCut,
		RBuff:       DefaultRBuff,
		Strategy:    "binned",
		StorageMode: "half",
		Epsilon:     DefaultEpsilon,
		Sigma:       DefaultSigma,
		Temperature: DefaultTemp,
		Dt:          DefaultDt,
		Steps:       DefaultSteps,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.N <= 0 {
		return fmt.Errorf("config: n must be positive, got %d", c.N)
	}
	if c.BoxEdge <= 0 {
		return fmt.Errorf("config: box_edge must be positive, got %g", c.BoxEdge)
	}
	if c.RCut <= 0 || c.RBuff < 0 {
		return fmt.Errorf("config: bad radii r_cut=%g r_buff=%g", c.RCut, c.RBuff)
	}
	if c.RCut+c.RBuff > c.BoxEdge/2 {
		return fmt.Errorf("config: r_cut+r_buff %g exceeds half the box edge %g",
			c.RCut+c.RBuff, c.BoxEdge/2)
	}
	if c.Dt <= 0 {
		return fmt.Errorf("config: dt must be positive, got %g", c.Dt)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("config: steps must be positive, got %d", c.Steps)
	}
	if c.Epsilon <= 0 || c.Sigma <= 0 {
		return fmt.Errorf("config: bad LJ parameters epsilon=%g sigma=%g", c.Epsilon, c.Sigma)
	}
	switch c.Strategy {
	case "direct", "unrolled", "binned":
	default:
		return fmt.Errorf("config: unknown strategy %q", c.Strategy)
	}
	switch c.StorageMode {
	case "half", "full":
	default:
		return fmt.Errorf("config: unknown storage mode %q", c.StorageMode)
	}
	if c.Temperature < 0 {
		return fmt.Errorf("config: temperature must not be negative, got %g", c.Temperature)
	}
	return nil
}
