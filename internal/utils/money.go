package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseBRL parses an amount as printed on Brazilian documents ("2.921,54",
// "R$ 10,00", "146.08") into a float64.
//
// When both "." and "," occur the rightmost one is the decimal separator. A
// lone "," is decimal. A lone "." is a thousands separator only when every
// group after it has exactly three digits ("1.500", "1.234.567").
func ParseBRL(s string) (float64, error) {
	v := strings.TrimSpace(s)
	v = strings.TrimPrefix(v, "R$")
	v = strings.TrimSpace(v)
	neg := false
	if strings.HasPrefix(v, "-") {
		neg = true
		v = strings.TrimSpace(v[1:])
	}
	if v == "" {
		return 0, fmt.Errorf("empty amount %q", s)
	}

	dot, comma := strings.LastIndex(v, "."), strings.LastIndex(v, ",")
	switch {
	case dot >= 0 && comma >= 0:
		if comma > dot {
			v = strings.ReplaceAll(v, ".", "")
			v = strings.Replace(v, ",", ".", 1)
		} else {
			v = strings.ReplaceAll(v, ",", "")
		}
	case comma >= 0:
		if strings.Count(v, ",") > 1 {
			return 0, fmt.Errorf("ambiguous amount %q", s)
		}
		v = strings.Replace(v, ",", ".", 1)
	case dot >= 0:
		if thousandsGroups(v) {
			v = strings.ReplaceAll(v, ".", "")
		} else if strings.Count(v, ".") > 1 {
			return 0, fmt.Errorf("ambiguous amount %q", s)
		}
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if neg {
		f = -f
	}
	return f, nil
}

// thousandsGroups reports whether every "."-separated group after the first
// has exactly three digits.
func thousandsGroups(v string) bool {
	parts := strings.Split(v, ".")
	if len(parts[0]) == 0 || len(parts[0]) > 3 {
		return false
	}
	for _, p := range parts[1:] {
		if len(p) != 3 {
			return false
		}
	}
	return true
}
