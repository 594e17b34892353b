package usecase

import "strings"

// NormalizeTarget trims the target reference and reports whether anything is left.
func NormalizeTarget(target string) (string, bool) {
	target = strings.TrimSpace(target)
	return target, target != ""
}

// ValidateQuantity reports whether quantity is a positive amount.
func ValidateQuantity(quantity int) bool {
	return quantity > 0
}
