// Package vehicle turns free-text vehicle descriptions into priced vehicles.
// It holds the descriptor parser, the heuristic MSRP model and the
// depreciation schedule. Everything here is a pure function of its inputs;
// the current year is always passed in.
package vehicle

import (
	"regexp"
	"strconv"
	"strings"

	"lease-analyzer/core/types"
)

// yearPattern matches a standalone model year between 1900 and 2099.
var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// Parse extracts make, model and year from text such as "2023 BMW X5".
//
// The first 4-digit year token is removed; the first remaining word is the
// make and the rest is the model. With fewer than two words left, Make and
// Model are empty. A missing year defaults to currentYear. Trim is never set.
func Parse(text string, currentYear int) types.VehicleDescriptor {
	desc := types.VehicleDescriptor{Year: currentYear}

	remainder := text
	if loc := yearPattern.FindStringIndex(text); loc != nil {
		if year, err := strconv.Atoi(text[loc[0]:loc[1]]); err == nil {
			desc.Year = year
		}
		remainder = text[:loc[0]] + " " + text[loc[1]:]
	}

	parts := strings.Fields(remainder)
	if len(parts) < 2 {
		return desc
	}

	desc.Make = capitalize(parts[0])
	desc.Model = capitalize(strings.Join(parts[1:], " "))
	return desc
}

// capitalize upper-cases the first character and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
	return string(runes)
}
