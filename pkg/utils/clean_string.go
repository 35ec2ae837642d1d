package utils

import "strings"

// CleanStringSlice trims every item and drops the empty ones.
func CleanStringSlice(parts []string) []string {
	result := make([]string, 0, len(parts))
	for _, item := range parts {
		if cleaned := strings.TrimSpace(item); cleaned != "" {
			result = append(result, cleaned)
		}
	}
	return result
}

// SplitList splits a comma separated flag value, e.g. "BI, BCM,,WUSM".
func SplitList(value string) []string {
	return CleanStringSlice(strings.Split(value, ","))
}
