package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, payload map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run_config.json")
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadRunRequestFromConfig(t *testing.T) {
	path := writeConfig(t, map[string]any{
		"population":         30,
		"generations":        12,
		"seed":               77,
		"workers":            3,
		"mutation_rate":      0.25,
		"selection_pressure": 5,
		"weight_w1":          2.0,
		"weight_ctc":         0.5,
		"target_euler":       -2,
		"twist_sigma":        1.5,
		"ctc_epsilon":        0.05,
		"detect_every":       4,
	})

	req, err := loadRunRequestFromConfig(path)
	if err != nil {
		t.Fatalf("load run request: %v", err)
	}
	if req.Population != 30 || req.Generations != 12 || req.Seed != 77 || req.Workers != 3 {
		t.Fatalf("unexpected base fields: %+v", req)
	}
	if req.MutationRate != 0.25 || req.SelectionPressure != 5 {
		t.Fatalf("unexpected variation fields: %+v", req)
	}
	if req.WeightW1 != 2.0 || req.WeightCTC != 0.5 || req.WeightEuler != 0 {
		t.Fatalf("unexpected weights: %+v", req)
	}
	if req.TargetEuler != -2 || req.TwistSigma != 1.5 || req.CTCEpsilon != 0.05 || req.DetectEvery != 4 {
		t.Fatalf("unexpected tuning fields: %+v", req)
	}
}

func TestLoadRunRequestFromConfigRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := loadRunRequestFromConfig(path); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestLoadOrDefaultRunRequestEmptyPath(t *testing.T) {
	req, err := loadOrDefaultRunRequest("")
	if err != nil {
		t.Fatalf("load default request: %v", err)
	}
	if req.Population != 0 || req.Generations != 0 {
		t.Fatalf("expected zero request, got %+v", req)
	}
}

func TestOverrideFromFlagsAppliesOnlySetFlags(t *testing.T) {
	path := writeConfig(t, map[string]any{
		"population":  30,
		"generations": 12,
		"seed":        77,
	})
	req, err := loadRunRequestFromConfig(path)
	if err != nil {
		t.Fatalf("load run request: %v", err)
	}

	overrideFromFlags(&req, map[string]bool{"pop": true, "seed": true}, map[string]any{
		"pop":  40,
		"gens": 99,
		"seed": int64(5),
	})
	if req.Population != 40 {
		t.Fatalf("expected set flag to override population, got %d", req.Population)
	}
	if req.Generations != 12 {
		t.Fatalf("expected unset flag to keep config value, got %d", req.Generations)
	}
	if req.Seed != 5 {
		t.Fatalf("expected set flag to override seed, got %d", req.Seed)
	}
}

func TestAsIntRejectsFractions(t *testing.T) {
	if _, ok := asInt(1.5); ok {
		t.Fatal("expected fractional value to be rejected")
	}
	if v, ok := asInt(float64(7)); !ok || v != 7 {
		t.Fatalf("expected integral value to round-trip, got %d ok=%t", v, ok)
	}
	if _, ok := asInt("7"); ok {
		t.Fatal("expected string value to be rejected")
	}
}
