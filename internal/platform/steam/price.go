package steam

import (
	"regexp"
	"strconv"
	"strings"
)

var priceRE = regexp.MustCompile(`[0-9]+(?:[.,][0-9]+)?`)

// ParsePrice converts a locale-formatted price string from the priceoverview
// endpoint into a float, e.g. "1 234,56 руб." -> 1234.56. Commas are treated
// as decimal separators and embedded spaces are stripped before the first
// numeric token is extracted. Unparseable or empty input yields 0.0 rather
// than an error; callers must check the result is positive before using it.
func ParsePrice(s string) float64 {
	if s == "" {
		return 0
	}

	cleaned := strings.NewReplacer(",", ".", " ", "", " ", "").Replace(s)

	m := priceRE.FindString(cleaned)
	if m == "" {
		return 0
	}

	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return f
}

// ParseVolume converts the 24h sales volume string, which may contain comma
// thousands separators (e.g. "1,410"), into an integer.
func ParseVolume(s string) (int, error) {
	return strconv.Atoi(strings.ReplaceAll(s, ",", ""))
}
