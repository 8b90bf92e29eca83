// Package legacy serves the legacy per-model valuation table: a short list
// of popular vehicles with a base market value and per-state adjustments.
// It is consulted only when a description cannot be parsed.
package legacy

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/shopspring/decimal"
)

//go:embed legacy.hcl
var embeddedTable []byte

// msrpMarkup estimates MSRP from a legacy market value.
var msrpMarkup = decimal.RequireFromString("1.15")

type tableFile struct {
	Vehicles []vehicleBlock `hcl:"vehicle,block"`
}

type vehicleBlock struct {
	Name             string             `hcl:"name,label"`
	BaseValue        float64            `hcl:"base_value"`
	StateMultipliers map[string]float64 `hcl:"state_multipliers,optional"`
}

// Entry is one legacy vehicle.
type Entry struct {
	Name             string
	BaseValue        decimal.Decimal
	StateMultipliers map[string]decimal.Decimal
}

// Table is keyed by lower-cased vehicle name.
type Table struct {
	entries map[string]Entry
}

// Decode parses an HCL table. filename is used in diagnostics and must end
// in .hcl.
func Decode(filename string, src []byte) (*Table, error) {
	var file tableFile
	if err := hclsimple.Decode(filename, src, nil, &file); err != nil {
		return nil, fmt.Errorf("decode legacy table: %w", err)
	}

	t := &Table{entries: make(map[string]Entry, len(file.Vehicles))}
	for _, v := range file.Vehicles {
		key := normalize(v.Name)
		if key == "" {
			return nil, fmt.Errorf("legacy table: vehicle with empty name")
		}
		if v.BaseValue <= 0 {
			return nil, fmt.Errorf("legacy table: %s: base_value must be positive", v.Name)
		}
		if _, dup := t.entries[key]; dup {
			return nil, fmt.Errorf("legacy table: duplicate vehicle %s", v.Name)
		}

		e := Entry{
			Name:             v.Name,
			BaseValue:        decimal.NewFromFloat(v.BaseValue),
			StateMultipliers: make(map[string]decimal.Decimal, len(v.StateMultipliers)),
		}
		for state, m := range v.StateMultipliers {
			e.StateMultipliers[strings.ToUpper(state)] = decimal.NewFromFloat(m)
		}
		t.entries[key] = e
	}
	return t, nil
}

// Load reads a table from disk.
func Load(path string) (*Table, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(path, src)
}

// Default returns the built-in table.
func Default() *Table {
	t, err := Decode("legacy.hcl", embeddedTable)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup values a vehicle by its raw description. The market value is the
// base value times the state multiplier (1.0 when the state is not listed);
// MSRP is the market value plus 15%, rounded to whole dollars.
func (t *Table) Lookup(carModel, state string) (marketValue, msrp decimal.Decimal, ok bool) {
	e, found := t.entries[normalize(carModel)]
	if !found {
		return decimal.Zero, decimal.Zero, false
	}

	multiplier, listed := e.StateMultipliers[strings.ToUpper(strings.TrimSpace(state))]
	if !listed {
		multiplier = decimal.NewFromInt(1)
	}

	marketValue = e.BaseValue.Mul(multiplier)
	return marketValue, marketValue.Mul(msrpMarkup).Round(0), true
}

// Models lists the table's vehicle names in sorted order.
func (t *Table) Models() []string {
	out := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e.Name)
	}
	sort.Strings(out)
	return out
}

func normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
