package validation

import (
	"errors"
	"strings"
)

// ErrCityTooLong is returned when the city exceeds the maximum length in runes.
var ErrCityTooLong = errors.New("city name too long")

// ResolveCity trims surrounding whitespace and substitutes defaultCity when nothing is
// left. Any other input is passed through unchanged for the provider to judge.
// maxLen of 0 disables the length check.
func ResolveCity(input, defaultCity string, maxLen int) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		s = strings.TrimSpace(defaultCity)
	}
	if maxLen > 0 && len([]rune(s)) > maxLen {
		return "", ErrCityTooLong
	}
	return s, nil
}
