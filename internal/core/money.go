// Package core holds the pure domain of the ledger: entities, money and
// date handling, and the typed errors crossing the core boundary.
//
// Money is integer cents throughout. The database stores cents, every sum
// and average is exact, and only the presentation boundary converts to
// float64.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Money is a BRL amount in cents.
type Money struct {
	Cents int64
}

// Reais returns the amount as float64 for display and percentage math.
// Use cents for every calculation that must stay exact.
func (m Money) Reais() float64 {
	return float64(m.Cents) / 100.0
}

// Validate rejects zero and negative amounts.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return Invalid("amount", ReasonNonPositive)
	}
	return nil
}

// MoneyFromReais converts a float to cents with half-up rounding away from
// zero. NaN and infinities collapse to zero.
func MoneyFromReais(x float64) Money {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return Money{}
	}
	return Money{Cents: int64(math.Round(x * 100))}
}

// ParseCurrency parses a BRL amount string into cents.
//
// It accepts the rendered form ("R$ 1.234,56"), plain comma decimals
// ("1234,56"), and plain dot decimals ("1234.56"). Dots followed by exactly
// three digits and another separator group are thousand separators. A lone
// leading minus is honored. Half-up rounding is applied past the second
// fractional digit.
func ParseCurrency(s string) (Money, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, Invalid("amount", ReasonEmptyField)
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimSpace(s[1:])
	}

	intPart, fracPart, err := splitAmount(s)
	if err != nil {
		return Money{}, err
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, Invalid("amount", "malformed")
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return Money{}, Invalid("amount", "overflow")
	}

	// First two fractional digits, half-up on the third.
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}

	cents := iv*100 + fracCents
	if neg {
		cents = -cents
	}
	return Money{Cents: cents}, nil
}

// splitAmount separates integer and fractional digits, resolving the
// Brazilian thousand-dot / decimal-comma convention.
func splitAmount(s string) (intPart, fracPart string, err error) {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' && r != ',' {
			return "", "", Invalid("amount", "malformed")
		}
	}

	switch {
	case strings.Contains(s, ","):
		// Comma is always the decimal separator; dots are grouping.
		if strings.Count(s, ",") > 1 {
			return "", "", Invalid("amount", "malformed")
		}
		parts := strings.SplitN(s, ",", 2)
		intPart = strings.ReplaceAll(parts[0], ".", "")
		fracPart = parts[1]
	case strings.Contains(s, "."):
		parts := strings.Split(s, ".")
		last := parts[len(parts)-1]
		if len(parts) > 2 || len(last) == 3 {
			// "1.234" or "1.234.567": grouping only.
			for _, p := range parts[1:] {
				if len(p) != 3 {
					return "", "", Invalid("amount", "malformed")
				}
			}
			intPart = strings.Join(parts, "")
		} else {
			intPart, fracPart = parts[0], last
		}
	default:
		intPart = s
	}

	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return "", "", Invalid("amount", "malformed")
		}
	}
	return intPart, fracPart, nil
}
