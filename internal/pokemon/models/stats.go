package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ParseStats decodes a JSON array of stats. Two element shapes are accepted:
//
//	{"name": "hp", "base_stat": 45}
//	{"hp": 45}
//
// The second is the compact form submitted by the upload form; it must hold
// exactly one key.
func ParseStats(raw []byte) ([]Stat, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("stats must be a JSON array: %w", err)
	}
	stats := make([]Stat, 0, len(elems))
	for i, elem := range elems {
		s, err := parseStat(elem)
		if err != nil {
			return nil, fmt.Errorf("stats[%d]: %w", i, err)
		}
		stats = append(stats, s)
	}
	return stats, nil
}

func parseStat(elem json.RawMessage) (Stat, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(elem, &fields); err != nil {
		return Stat{}, fmt.Errorf("must be an object")
	}
	if _, ok := fields["name"]; ok {
		var s Stat
		dec := json.NewDecoder(bytes.NewReader(elem))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			return Stat{}, err
		}
		return s, nil
	}
	if len(fields) != 1 {
		return Stat{}, fmt.Errorf("expected {\"name\",\"base_stat\"} or a single {\"<name>\": <value>} pair")
	}
	var s Stat
	for name, rawValue := range fields {
		s.Name = name
		if err := json.Unmarshal(rawValue, &s.BaseStat); err != nil {
			return Stat{}, fmt.Errorf("%s must be an integer", name)
		}
	}
	return s, nil
}
