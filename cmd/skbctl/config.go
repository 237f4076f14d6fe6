package main

import (
	"encoding/json"
	"math"
	"os"

	skbapi "skbengine/pkg/skbengine"
)

func loadOrDefaultRunRequest(path string) (skbapi.RunRequest, error) {
	if path == "" {
		return skbapi.RunRequest{}, nil
	}
	return loadRunRequestFromConfig(path)
}

func loadRunRequestFromConfig(path string) (skbapi.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return skbapi.RunRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return skbapi.RunRequest{}, err
	}

	var req skbapi.RunRequest
	if v, ok := asInt(raw["population"]); ok {
		req.Population = v
	}
	if v, ok := asInt(raw["generations"]); ok {
		req.Generations = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		req.Seed = v
	}
	if v, ok := asInt(raw["workers"]); ok {
		req.Workers = v
	}
	if v, ok := asFloat64(raw["mutation_rate"]); ok {
		req.MutationRate = v
	}
	if v, ok := asInt(raw["selection_pressure"]); ok {
		req.SelectionPressure = v
	}
	if v, ok := asFloat64(raw["weight_w1"]); ok {
		req.WeightW1 = v
	}
	if v, ok := asFloat64(raw["weight_euler"]); ok {
		req.WeightEuler = v
	}
	if v, ok := asFloat64(raw["weight_q"]); ok {
		req.WeightQ = v
	}
	if v, ok := asFloat64(raw["weight_twist"]); ok {
		req.WeightTwist = v
	}
	if v, ok := asFloat64(raw["weight_ctc"]); ok {
		req.WeightCTC = v
	}
	if v, ok := asInt(raw["target_euler"]); ok {
		req.TargetEuler = v
	}
	if v, ok := asFloat64(raw["twist_sigma"]); ok {
		req.TwistSigma = v
	}
	if v, ok := asFloat64(raw["ctc_epsilon"]); ok {
		req.CTCEpsilon = v
	}
	if v, ok := asInt(raw["detect_every"]); ok {
		req.DetectEvery = v
	}
	return req, nil
}

// overrideFromFlags applies only the flags the user set on the command line on
// top of a config-file request.
func overrideFromFlags(req *skbapi.RunRequest, set map[string]bool, values map[string]any) {
	for name, value := range values {
		if !set[name] {
			continue
		}
		switch name {
		case "pop":
			req.Population = value.(int)
		case "gens":
			req.Generations = value.(int)
		case "seed":
			req.Seed = value.(int64)
		case "workers":
			req.Workers = value.(int)
		case "mutation-rate":
			req.MutationRate = value.(float64)
		case "pressure":
			req.SelectionPressure = value.(int)
		case "w-w1":
			req.WeightW1 = value.(float64)
		case "w-euler":
			req.WeightEuler = value.(float64)
		case "w-q":
			req.WeightQ = value.(float64)
		case "w-twist":
			req.WeightTwist = value.(float64)
		case "w-ctc":
			req.WeightCTC = value.(float64)
		case "target-euler":
			req.TargetEuler = value.(int)
		case "twist-sigma":
			req.TwistSigma = value.(float64)
		case "ctc-epsilon":
			req.CTCEpsilon = value.(float64)
		case "detect-every":
			req.DetectEvery = value.(int)
		}
	}
}

func asInt(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func asInt64(v any) (int64, bool) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

func asFloat64(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}
