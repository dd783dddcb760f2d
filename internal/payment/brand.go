package payment

import "strings"

type CardBrand string

const (
	BrandVisa       CardBrand = "visa"
	BrandMastercard CardBrand = "mastercard"
	BrandAmex       CardBrand = "amex"
	BrandUnknown    CardBrand = "unknown"
)

// DetectBrand classifies a card number by its numeric prefix. Spaces and
// hyphens are ignored.
func DetectBrand(cardNumber string) CardBrand {
	var digits strings.Builder
	for _, r := range cardNumber {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	n := digits.String()

	switch {
	case strings.HasPrefix(n, "4"):
		return BrandVisa
	case len(n) >= 2 && n[0] == '5' && n[1] >= '1' && n[1] <= '5':
		return BrandMastercard
	case strings.HasPrefix(n, "34"), strings.HasPrefix(n, "37"):
		return BrandAmex
	default:
		return BrandUnknown
	}
}

// maskCard keeps only the last four digits visible for logging.
func maskCard(cardNumber string) string {
	masked := []rune(cardNumber)
	seen := 0
	for i := len(masked) - 1; i >= 0; i-- {
		if masked[i] < '0' || masked[i] > '9' {
			continue
		}
		seen++
		if seen > 4 {
			masked[i] = '*'
		}
	}
	return string(masked)
}
