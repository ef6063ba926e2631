package domain

import (
	"regexp"
	"strconv"
)

// MinQuantity is the smallest tradable share quantity.
const MinQuantity = 0.01

// quantityPattern accepts digits with an optional decimal point and at most
// two decimal digits, so transient input like "12." stays displayable.
var quantityPattern = regexp.MustCompile(`^\d*\.?\d{0,2}$`)

// ValidQuantityText reports whether s is acceptable as in-progress quantity
// input. The empty string is valid (cleared field), but does not parse.
func ValidQuantityText(s string) bool {
	return quantityPattern.MatchString(s)
}

// ParseQuantity parses quantity text into a tradable share count. ok is false
// when the text is not a number or is below MinQuantity.
func ParseQuantity(s string) (float64, bool) {
	q, err := strconv.ParseFloat(s, 64)
	if err != nil || q < MinQuantity {
		return 0, false
	}
	return q, true
}
