package config

import "sort"

var Presets = map[string]map[string]*Config{
	DefaultModel: {
		"baseline":     DefaultConfig(),
		"epizootic":    epizootic(),
		"disease_free": diseaseFree(),
	},
}

// epizootic seeds the soil with particles and a few infected adults under
// stronger transmission. The particle seed stays below P0.
func epizootic() *Config {
	cfg := DefaultConfig()
	cfg.Duration = 180
	cfg.Params.Bpb = 0.005
	cfg.Params.Bbp = 0.01
	cfg.InitState.PI = 200
	cfg.InitState.AI = 5
	cfg.InitState.AoI = 5
	return cfg
}

// diseaseFree switches off both transmission routes.
func diseaseFree() *Config {
	cfg := DefaultConfig()
	cfg.Params.Bpb = 0
	cfg.Params.Bbp = 0
	cfg.InitState = uninfected(DefaultDensity)
	return cfg
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(modelName, preset string) *Config {
	modelPresets, ok := Presets[modelName]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(modelName string) []string {
	modelPresets, ok := Presets[modelName]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
