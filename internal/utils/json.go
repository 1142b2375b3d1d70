package utils

import (
	"encoding/json"

	"k8s.io/klog/v2"
)

// ToJSON encodes v for log lines. It returns "" when v cannot be encoded.
func ToJSON(v any) string {
	jsonData, err := json.Marshal(v)
	if err != nil {
		klog.Errorf("json marshal failed: %v", err)
		return ""
	}
	return string(jsonData)
}

// Truncate shortens s to max runes for logging.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
