package service

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.yaml")
	yaml := `
model_path: /data/models/cf.json
cf_weight: 0.7
cb_weight: 0.3
default_limit: 20
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.ModelPath != "/data/models/cf.json" {
		t.Errorf("ModelPath = %q", cfg.ModelPath)
	}
	if cfg.CFWeight != 0.7 || cfg.CBWeight != 0.3 {
		t.Errorf("weights = %v/%v, want 0.7/0.3", cfg.CFWeight, cfg.CBWeight)
	}
	if cfg.DefaultLimit != 20 {
		t.Errorf("DefaultLimit = %d, want 20", cfg.DefaultLimit)
	}
	// Unset fields keep their defaults.
	d := DefaultConfig()
	if cfg.RecallTopN != d.RecallTopN || cfg.HalfLifeDays != d.HalfLifeDays {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadConfig() on missing file should fail")
	}
}

func TestConfig_Normalize(t *testing.T) {
	var cfg Config
	cfg.normalize()
	d := DefaultConfig()
	if cfg.ModelPath != d.ModelPath || cfg.CFWeight != d.CFWeight || cfg.DefaultLimit != d.DefaultLimit {
		t.Errorf("normalize() left zero values: %+v", cfg)
	}
}
