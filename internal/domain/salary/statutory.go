package salary

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"sitehrm/internal/domain/apperr"
)

// ESIPolicyManual: ESI is whatever the operator enters on the structure.
// No automatic contribution rule is applied.
const ESIPolicyManual = "manual"

var (
	pfCeilingBasic = decimal.NewFromInt(15000)
	pfCappedAmount = decimal.NewFromInt(1800)
	pfRate         = decimal.RequireFromString("0.12")
)

//go:embed pt_table.yaml
var defaultPTTable []byte

// ProvidentFund returns the employee PF contribution for a monthly basic salary.
func ProvidentFund(basic decimal.Decimal) decimal.Decimal {
	if basic.GreaterThanOrEqual(pfCeilingBasic) {
		return pfCappedAmount
	}
	return basic.Mul(pfRate).Round(0)
}

type ptSlab struct {
	Above   *int64 `yaml:"above"`
	AtLeast *int64 `yaml:"atLeast"`
	Amount  int64  `yaml:"amount"`
}

type ptJurisdiction struct {
	Name  string   `yaml:"name"`
	Slabs []ptSlab `yaml:"slabs"`
}

type ptFile struct {
	Jurisdictions map[string]ptJurisdiction `yaml:"jurisdictions"`
}

// PTTable holds professional tax slabs per jurisdiction code.
type PTTable struct {
	jurisdictions map[string]ptJurisdiction
}

// LoadPTTable reads the slab table from path, or the built-in table when path is empty.
func LoadPTTable(path string) (*PTTable, error) {
	raw := defaultPTTable
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read pt table: %w", err)
		}
		raw = data
	}
	return ParsePTTable(raw)
}

func ParsePTTable(raw []byte) (*PTTable, error) {
	var file ptFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse pt table: %w", err)
	}
	if len(file.Jurisdictions) == 0 {
		return nil, fmt.Errorf("pt table has no jurisdictions")
	}
	table := &PTTable{jurisdictions: map[string]ptJurisdiction{}}
	for code, j := range file.Jurisdictions {
		for i, slab := range j.Slabs {
			if (slab.Above == nil) == (slab.AtLeast == nil) {
				return nil, fmt.Errorf("pt table %s slab %d: exactly one of above or atLeast is required", code, i)
			}
		}
		table.jurisdictions[strings.ToUpper(code)] = j
	}
	return table, nil
}

func (t *PTTable) Jurisdictions() []string {
	out := make([]string, 0, len(t.jurisdictions))
	for code := range t.jurisdictions {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// ProfessionalTax is the monthly PT for a gross salary in the jurisdiction.
func (t *PTTable) ProfessionalTax(jurisdiction string, gross decimal.Decimal) (decimal.Decimal, error) {
	j, ok := t.jurisdictions[strings.ToUpper(strings.TrimSpace(jurisdiction))]
	if !ok {
		return decimal.Zero, apperr.Invalid("unknown professional tax jurisdiction %q, expected one of %s",
			jurisdiction, strings.Join(t.Jurisdictions(), ", "))
	}
	for _, slab := range j.Slabs {
		switch {
		case slab.Above != nil && gross.GreaterThan(decimal.NewFromInt(*slab.Above)):
			return decimal.NewFromInt(slab.Amount), nil
		case slab.AtLeast != nil && gross.GreaterThanOrEqual(decimal.NewFromInt(*slab.AtLeast)):
			return decimal.NewFromInt(slab.Amount), nil
		}
	}
	return decimal.Zero, nil
}

type StatutoryPreview struct {
	Jurisdiction    string          `json:"jurisdiction"`
	PFDeduction     decimal.Decimal `json:"pfDeduction"`
	ProfessionalTax decimal.Decimal `json:"professionalTax"`
	ESIPolicy       string          `json:"esiPolicy"`
}

func (t *PTTable) Preview(jurisdiction string, basic, gross decimal.Decimal) (StatutoryPreview, error) {
	pt, err := t.ProfessionalTax(jurisdiction, gross)
	if err != nil {
		return StatutoryPreview{}, err
	}
	return StatutoryPreview{
		Jurisdiction:    strings.ToUpper(strings.TrimSpace(jurisdiction)),
		PFDeduction:     ProvidentFund(basic),
		ProfessionalTax: pt,
		ESIPolicy:       ESIPolicyManual,
	}, nil
}

// ApplyStatutory overwrites PF and PT on fields with the computed values.
// ESI and every other deduction are left as entered.
func (t *PTTable) ApplyStatutory(fields Fields, jurisdiction string) (Fields, error) {
	pt, err := t.ProfessionalTax(jurisdiction, fields.Gross())
	if err != nil {
		return Fields{}, err
	}
	fields.PFDeduction = ProvidentFund(fields.BasicSalary)
	fields.ProfessionalTax = pt
	return fields, nil
}
