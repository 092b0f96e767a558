package utils

import (
	"strconv"
)

// StringToInt converts string to int, returns 0 if error
func StringToInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

// PositiveIntOr parses s, falling back when it is empty, malformed or below 1.
func PositiveIntOr(s string, fallback int) int {
	if i := StringToInt(s); i > 0 {
		return i
	}
	return fallback
}
