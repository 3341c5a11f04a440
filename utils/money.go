package utils

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var plainNumber = regexp.MustCompile(`^-?\d*\.?\d+$`)

// ParseMoney reads an amount written with "." as thousands separator and ","
// as decimal separator, e.g. "1.234,56 €". It returns nil when the text is
// empty or not a number; source pages omit amounts often enough that this is
// not treated as an error.
func ParseMoney(text string) *float64 {
	cleaned := strings.Map(func(r rune) rune {
		if r == '€' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
	if cleaned == "" {
		return nil
	}

	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.Replace(cleaned, ",", ".", 1)
	if !plainNumber.MatchString(cleaned) {
		return nil
	}

	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &amount
}

// FormatEuro renders an amount the way the source publishes it ("1.234,56 €").
func FormatEuro(amount *float64) string {
	if amount == nil {
		return "N/A"
	}

	raw := strconv.FormatFloat(*amount, 'f', 2, 64)
	negative := strings.HasPrefix(raw, "-")
	raw = strings.TrimPrefix(raw, "-")

	intPart, decPart, _ := strings.Cut(raw, ".")
	var grouped strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(digit)
	}

	out := grouped.String() + "," + decPart + " €"
	if negative {
		out = "-" + out
	}
	return out
}
