package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// SplitList splits a comma separated parameter value into trimmed entries.
// An empty value yields an empty slice, not a slice holding one empty string.
func SplitList(val string) []string {
	val = strings.TrimSpace(val)
	if val == "" {
		return []string{}
	}
	parts := strings.Split(val, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = Unquote(strings.TrimSpace(p))
	}
	return out
}

// Unquote strips one pair of surrounding double quotes, so `""` reads as empty.
func Unquote(val string) string {
	if len(val) >= 2 && strings.HasPrefix(val, `"`) && strings.HasSuffix(val, `"`) {
		return val[1 : len(val)-1]
	}
	return val
}

// At returns the entry at index i, or "" when the list is shorter.
// Parameter lists are index aligned with the variables list but are often
// left short when the trailing variables use defaults.
func At(list []string, i int) string {
	if i < 0 || i >= len(list) {
		return ""
	}
	return list[i]
}

// ToInt converts various types to int using explicit type switching.
// It handles standard integer types, floats, strings, and byte slices.
func ToInt(val any) int {
	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	case uint:
		return int(v)
	case uint64:
		return int(v)
	case uint32:
		return int(v)
	case float64:
		return int(v)
	case float32:
		return int(v)
	case string:
		i, _ := strconv.Atoi(strings.TrimSpace(v))
		return i
	case []byte:
		i, _ := strconv.Atoi(strings.TrimSpace(string(v)))
		return i
	default:
		i, _ := strconv.Atoi(fmt.Sprintf("%v", v))
		return i
	}
}

// ToBool converts parameter flags to bool.
// "1", "true", "yes" and "on" (any case) are true, everything else is false.
func ToBool(val any) bool {
	switch v := val.(type) {
	case bool:
		return v
	case int, int64, int32, uint, uint64, uint32:
		return ToInt(v) == 1
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "on":
			return true
		}
		return false
	case []byte:
		return ToBool(string(v))
	default:
		return false
	}
}
