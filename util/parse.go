package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseNumber parses a form value. Empty, non-finite, and (for integer
// fields) fractional input is rejected.
func ParseNumber(s string, integer bool) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("value required")
	}
	if integer {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a whole number", s)
		}
		return float64(v), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return v, nil
}

// NumericRune reports whether r may be typed into a number field.
func NumericRune(r rune, integer bool) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r == '-' || r == '+':
		return true
	case r == '.' || r == 'e' || r == 'E':
		return !integer
	}
	return false
}

// FormatNumber renders a value the way the form shows it.
func FormatNumber(v float64, integer bool) string {
	if integer {
		return strconv.FormatInt(int64(math.Round(v)), 10)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
