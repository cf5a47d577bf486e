package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ContainsAny reports whether s contains any of the markers.
func ContainsAny(s string, markers ...string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// TrimSuffixAny strips the first matching suffix from s and returns it.
// ok is false when none of the suffixes match.
func TrimSuffixAny(s string, suffixes ...string) (rest, suffix string, ok bool) {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return strings.TrimSuffix(s, suf), suf, true
		}
	}
	return s, "", false
}

// ParseFloat parses a finite decimal number. NaN and infinities are rejected.
func ParseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite number %q", s)
	}
	return v, nil
}
