package config

import "sort"

var Presets = map[string]*Config{
	"small": {
		N: 27, BoxEdge: 8.0, RCut: 2.5, RBuff: 0.4,
		Strategy: "direct", StorageMode: "half",
		Epsilon: 1.0, Sigma: 1.0, Temperature: 0.3,
		Dt: 0.002, Steps: 2000,
	},
	"gas": {
		N: 125, BoxEdge: 20.0, RCut: 2.5, RBuff: 0.5,
		Strategy: "binned", StorageMode: "half",
		Epsilon: 1.0, Sigma: 1.0, Temperature: 1.2,
		Dt: 0.002, Steps: 5000,
	},
	"dense": {
		N: 512, BoxEdge: 9.0, RCut: 2.5, RBuff: 0.3,
		Strategy: "binned", StorageMode: "half",
		Epsilon: 1.0, Sigma: 1.0, Temperature: 0.7,
		Dt: 0.001, Steps: 5000, SortEvery: 100,
	},
}

func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
