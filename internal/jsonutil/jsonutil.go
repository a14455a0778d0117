// Package jsonutil provides helper functions for extracting typed values
// from unstructured JSON maps (map[string]any).
package jsonutil

import (
	"encoding/json"
	"fmt"
)

// StringFromAny safely converts any value to string.
func StringFromAny(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return fmt.Sprintf("%v", s)
	case bool:
		return fmt.Sprintf("%v", s)
	default:
		return ""
	}
}

// MapFromAny returns v as a map[string]any, or nil if it is not one.
func MapFromAny(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// StringFromMap extracts a string from a map by key.
func StringFromMap(data map[string]any, key string) string {
	if v, ok := data[key]; ok {
		if s, isString := v.(string); isString {
			return s
		}
	}
	return ""
}

// MapFromMap extracts a nested map from a map by key.
func MapFromMap(data map[string]any, key string) map[string]any {
	if v, ok := data[key]; ok {
		return MapFromAny(v)
	}
	return nil
}

// CloneMap returns a shallow copy of a map, or an empty map for nil input.
func CloneMap(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
