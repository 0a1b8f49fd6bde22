package main

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// vmConfig holds the VM tunables an operator can override from a YAML
// file. Bytecode semantics never depend on these; they only shape how
// aggressively the collector runs and how big the fixed stacks are.
type vmConfig struct {
	InitialGCThreshold int64   `yaml:"initial_gc_threshold"`
	HeapGrowthFactor   float64 `yaml:"heap_growth_factor"`
	FramesMax          int     `yaml:"frames_max"`
	StressGC           bool    `yaml:"stress_gc"`
	LogGC              bool    `yaml:"log_gc"`
}

func defaultConfig() vmConfig {
	return vmConfig{
		InitialGCThreshold: 1024 * 1024,
		HeapGrowthFactor:   2.0,
		FramesMax:          64,
	}
}

func loadConfig(path string) (vmConfig, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, nil
}
