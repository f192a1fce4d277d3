// Package core holds the domain model of the répartition service.
//
// This file contains parsing and formatting helpers for FCFA amounts.
// XOF has no minor unit, so amounts are whole francs stored as int64.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseFrancs converts a user-supplied amount string to whole francs.
//
// It accepts plain integers, thousands separated by spaces or dots
// ("1 000 000", "1.000.000"), and a decimal part introduced by a comma or
// a final dot, which is rounded half away from zero. Negative amounts are
// rejected.
//
// Examples:
//
//	ParseFrancs("900000")    -> 900000, nil
//	ParseFrancs("1 000 000") -> 1000000, nil
//	ParseFrancs("1250,5")    -> 1251, nil
func ParseFrancs(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	// Decimal part after a comma, or after the last dot when the dot is
	// not a thousands separator (fewer or more than 3 trailing digits).
	frac := ""
	if i := strings.IndexByte(s, ','); i >= 0 {
		frac = s[i+1:]
		s = s[:i]
	} else if i := strings.LastIndexByte(s, '.'); i >= 0 && len(s)-i-1 != 3 {
		frac = s[i+1:]
		s = s[:i]
	}
	// Strip grouping characters from the integer part.
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '.' || r == '\u00a0' || r == '\u202f' {
			return -1
		}
		return r
	}, s)
	if s == "" {
		s = "0"
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range frac {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if len(frac) > 0 && frac[0] >= '5' {
		v++
	}
	return v, nil
}

// FormatFrancs renders an amount with no-break spaces as
// thousands separators, the way the office's documents print FCFA.
func FormatFrancs(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatInt(v, 10)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteRune('\u00a0')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
