package main

import (
	"encoding/json"
	"os"

	morphapi "morphogen/pkg/morphogen"
)

func loadRunRequestFromConfig(path string) (morphapi.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return morphapi.RunRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return morphapi.RunRequest{}, err
	}

	var req morphapi.RunRequest
	if v, ok := asString(raw["run_id"]); ok {
		req.RunID = v
	}
	if v, ok := asString(raw["rule"]); ok {
		req.Rule = v
	}
	if v, ok := asInt(raw["target_number"]); ok {
		req.TargetNumber = v
	}
	if v, ok := asInt(raw["population_size"]); ok {
		req.PopulationSize = v
	}
	if v, ok := asInt(raw["sample_size"]); ok {
		req.SampleSize = v
	}
	if v, ok := asInt(raw["max_births"]); ok {
		req.MaxBirths = v
	}
	if v, ok := asInt(raw["num_steps"]); ok {
		req.Steps = v
	}
	if v, ok := asInt(raw["seed_size"]); ok {
		req.SeedSize = v
	}
	if v, ok := asFloat64(raw["prob_a"]); ok {
		req.ProbA = v
	}
	if v, ok := asFloat64(raw["prob_b"]); ok {
		req.ProbB = v
	}
	if v, ok := asFloat64(raw["prob_mutation"]); ok {
		req.ProbMutation = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		req.Seed = v
	}
	if v, ok := asInt(raw["report_every"]); ok {
		req.ReportEvery = v
	}
	return req, nil
}

func overrideFromFlags(req *morphapi.RunRequest, set map[string]bool, flagValue map[string]any) {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "run-id":
			req.RunID = v.(string)
		case "rule":
			req.Rule = v.(string)
		case "target":
			req.TargetNumber = v.(int)
		case "pop":
			req.PopulationSize = v.(int)
		case "sample":
			req.SampleSize = v.(int)
		case "max-births":
			req.MaxBirths = v.(int)
		case "steps":
			req.Steps = v.(int)
		case "seed-size":
			req.SeedSize = v.(int)
		case "prob-a":
			req.ProbA = v.(float64)
		case "prob-b":
			req.ProbB = v.(float64)
		case "prob-mutation":
			req.ProbMutation = v.(float64)
		case "seed":
			req.Seed = v.(int64)
		case "report-every":
			req.ReportEvery = v.(int)
		}
	}
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}
