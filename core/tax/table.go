// Package tax holds the state lease tax table and the lease tax aggregator.
package tax

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"lease-analyzer/core/types"
)

//go:embed states.yaml
var embeddedStates []byte

type tableFile struct {
	States []stateRow `yaml:"states"`
}

type stateRow struct {
	Code           string `yaml:"code"`
	Name           string `yaml:"name"`
	SalesTaxRate   string `yaml:"sales_tax_rate"`
	LeaseTaxRate   string `yaml:"lease_tax_rate"`
	LeaseTaxType   string `yaml:"lease_tax_type"`
	AdditionalFees string `yaml:"additional_fees"`
	Description    string `yaml:"description"`
}

// Table is an immutable state code -> tax info mapping.
type Table struct {
	states map[string]types.StateTaxInfo
}

// LoadTable decodes a YAML tax table.
func LoadTable(r io.Reader) (*Table, error) {
	var file tableFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode tax table: %w", err)
	}

	t := &Table{states: make(map[string]types.StateTaxInfo, len(file.States))}
	for _, row := range file.States {
		info, err := row.toInfo()
		if err != nil {
			return nil, fmt.Errorf("state %s: %w", row.Code, err)
		}
		if _, dup := t.states[info.Code]; dup {
			return nil, fmt.Errorf("duplicate state code %s", info.Code)
		}
		t.states[info.Code] = info
	}
	return t, nil
}

func (r stateRow) toInfo() (types.StateTaxInfo, error) {
	code := strings.ToUpper(strings.TrimSpace(r.Code))
	if len(code) != 2 {
		return types.StateTaxInfo{}, fmt.Errorf("state code must have two letters, got %q", r.Code)
	}

	sales, err := parseAmount(r.SalesTaxRate)
	if err != nil {
		return types.StateTaxInfo{}, fmt.Errorf("sales_tax_rate: %w", err)
	}
	lease, err := parseAmount(r.LeaseTaxRate)
	if err != nil {
		return types.StateTaxInfo{}, fmt.Errorf("lease_tax_rate: %w", err)
	}
	fees, err := parseAmount(r.AdditionalFees)
	if err != nil {
		return types.StateTaxInfo{}, fmt.Errorf("additional_fees: %w", err)
	}

	return types.StateTaxInfo{
		Code:           code,
		Name:           r.Name,
		SalesTaxRate:   sales,
		LeaseTaxRate:   lease,
		LeaseTaxType:   r.LeaseTaxType,
		AdditionalFees: fees,
		Description:    r.Description,
	}, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("must not be negative, got %s", s)
	}
	return d, nil
}

var defaultTable = mustLoadDefault()

func mustLoadDefault() *Table {
	t, err := LoadTable(bytes.NewReader(embeddedStates))
	if err != nil {
		panic(err)
	}
	return t
}

// Default returns the built-in table of the 50 states plus DC.
func Default() *Table {
	return defaultTable
}

// Lookup finds a state by two-letter code, ignoring case and surrounding space.
func (t *Table) Lookup(code string) (types.StateTaxInfo, bool) {
	info, ok := t.states[strings.ToUpper(strings.TrimSpace(code))]
	return info, ok
}

// All returns every state sorted by display name.
func (t *Table) All() []types.StateTaxInfo {
	out := make([]types.StateTaxInfo, 0, len(t.states))
	for _, info := range t.states {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// Len returns the number of states in the table.
func (t *Table) Len() int {
	return len(t.states)
}
