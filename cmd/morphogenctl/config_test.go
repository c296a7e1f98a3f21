package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	morphapi "morphogen/pkg/morphogen"
)

func TestLoadRunRequestFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_config.json")
	payload := map[string]any{
		"run_id":          "run-7",
		"rule":            "B3/S45678:T60,60",
		"target_number":   4,
		"population_size": 1000,
		"sample_size":     40,
		"max_births":      1000000,
		"num_steps":       100,
		"seed_size":       30,
		"prob_a":          0.5,
		"prob_mutation":   0.1,
		"seed":            77,
		"report_every":    10000,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	req, err := loadRunRequestFromConfig(path)
	if err != nil {
		t.Fatalf("load run request: %v", err)
	}
	if req.RunID != "run-7" || req.Rule != "B3/S45678:T60,60" || req.TargetNumber != 4 {
		t.Fatalf("unexpected identity fields: %+v", req)
	}
	if req.PopulationSize != 1000 || req.SampleSize != 40 || req.MaxBirths != 1000000 {
		t.Fatalf("unexpected population fields: %+v", req)
	}
	if req.Steps != 100 || req.SeedSize != 30 || req.ProbA != 0.5 || req.ProbMutation != 0.1 {
		t.Fatalf("unexpected growth fields: %+v", req)
	}
	if req.Seed != 77 || req.ReportEvery != 10000 {
		t.Fatalf("unexpected reporting fields: %+v", req)
	}
}

func TestLoadRunRequestFromConfigMissingFile(t *testing.T) {
	if _, err := loadRunRequestFromConfig(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected missing file error")
	}
}

func TestOverrideFromFlags(t *testing.T) {
	req, err := loadRunRequestFromConfig(writeConfig(t, map[string]any{
		"rule":            "Immigration:T60,60",
		"population_size": 2000,
		"seed":            5,
	}))
	if err != nil {
		t.Fatalf("load run request: %v", err)
	}

	overrideFromFlags(&req, map[string]bool{"pop": true, "seed": true}, map[string]any{
		"pop":  500,
		"seed": int64(9),
	})

	if req.PopulationSize != 500 {
		t.Fatalf("expected overridden population, got %d", req.PopulationSize)
	}
	if req.Seed != 9 {
		t.Fatalf("expected overridden seed, got %d", req.Seed)
	}
	if req.Rule != "Immigration:T60,60" {
		t.Fatalf("expected config rule preserved, got %s", req.Rule)
	}
}

func TestOverrideFromFlagsIgnoresUnsetFlags(t *testing.T) {
	req := loadDefaultRequest(t)
	overrideFromFlags(&req, map[string]bool{}, map[string]any{"pop": 500})
	if req.PopulationSize != 2000 {
		t.Fatalf("unset flag overrode config: %d", req.PopulationSize)
	}
}

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

func loadDefaultRequest(t *testing.T) morphapi.RunRequest {
	t.Helper()

	loaded, err := loadRunRequestFromConfig(writeConfig(t, map[string]any{"population_size": 2000}))
	if err != nil {
		t.Fatalf("load run request: %v", err)
	}
	return loaded
}
