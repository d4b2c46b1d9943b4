package builtin

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// stringParam extracts a required string parameter
func stringParam(params map[string]interface{}, name string) (string, error) {
	v, ok := params[name]
	if !ok {
		return "", fmt.Errorf("%s is required", name)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%s must be a non-empty string", name)
	}
	return s, nil
}

// intParam extracts an optional integer parameter. JSON numbers arrive as
// float64; some models also send numerics as strings.
func intParam(params map[string]interface{}, name string, def int) int {
	v, ok := params[name]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i
		}
	}
	return def
}

// resolveWithin joins rel onto base and rejects escapes via "..".
func resolveWithin(base, rel string) (string, error) {
	clean := filepath.Clean(rel)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("path must stay inside the working directory")
	}
	return filepath.Join(base, clean), nil
}
