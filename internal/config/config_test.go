package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if cfg.Strategy != "binned" {
		t.Errorf("expected binned strategy, got %s", cfg.Strategy)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero n", func(c *Config) { c.N = 0 }},
		{"negative box", func(c *Config) { c.BoxEdge = -1 }},
		{"negative r_cut", func(c *Config) { c.RCut = -1 }},
		{"reach beyond half box", func(c *Config) { c.RCut = 6.0 }},
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"zero steps", func(c *Config) { c.Steps = 0 }},
		{"zero epsilon", func(c *Config) { c.Epsilon = 0 }},
		{"unknown strategy", func(c *Config) { c.Strategy = "octree" }},
		{"unknown storage mode", func(c *Config) { c.StorageMode = "diagonal" }},
		{"negative temperature", func(c *Config) { c.Temperature = -0.1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	cfg := DefaultConfig()
	cfg.N = 100
	cfg.Strategy = "unrolled"
	cfg.Every = 5

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got.N != 100 || got.Strategy != "unrolled" || got.Every != 5 {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("n: 50\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.N != 50 {
		t.Errorf("explicit field lost: n=%d", cfg.N)
	}
	if cfg.RCut != DefaultRCut || cfg.Strategy != "binned" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestPresets(t *testing.T) {
	for _, name := range ListPresets() {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Fatalf("listed preset %q missing", name)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %q invalid: %v", name, err)
		}
	}

	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for unknown preset")
	}

	// GetPreset hands out a copy, not the shared table entry.
	a := GetPreset("small")
	a.N = 1
	if Presets["small"].N == 1 {
		t.Error("preset table mutated through a copy")
	}
}
