package core

import (
	"math"
	"strings"
	"time"
)

// FormatCurrency renders cents as Brazilian currency: "R$ 1.234,56".
// Negative amounts render as "R$ -1.234,56".
func FormatCurrency(m Money) string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	whole := cents / 100
	frac := cents % 100

	digits := make([]byte, 0, 24)
	if whole == 0 {
		digits = append(digits, '0')
	}
	for whole > 0 {
		digits = append(digits, byte('0'+whole%10))
		whole /= 10
	}

	var b strings.Builder
	b.WriteString("R$ ")
	b.WriteString(sign)
	for i := len(digits) - 1; i >= 0; i-- {
		b.WriteByte(digits[i])
		if i > 0 && i%3 == 0 {
			b.WriteByte('.')
		}
	}
	b.WriteByte(',')
	b.WriteByte(byte('0' + frac/10))
	b.WriteByte(byte('0' + frac%10))
	return b.String()
}

// FormatCurrencyFloat renders a float amount. NaN and infinities render as
// "R$ 0,00", matching what the dashboard shows before any data exists.
func FormatCurrencyFloat(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return FormatCurrency(Money{})
	}
	return FormatCurrency(MoneyFromReais(x))
}

// FormatDate renders a date as dd/mm/yyyy. The zero date renders empty.
func FormatDate(d Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format("02/01/2006")
}

// ParseDate accepts ISO (YYYY-MM-DD) and Brazilian (dd/mm/yyyy) input.
// The empty string yields the zero date without error.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse("02/01/2006", s)
	if err != nil {
		return Date{}, Invalid("date", "malformed")
	}
	return Date{Time: t}, nil
}
