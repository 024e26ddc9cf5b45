// internal/app/system/fieldmap/fieldmap.go
package fieldmap

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dalemusser/leadhub/internal/domain/models"
)

// RawRow is one spreadsheet row: raw column header -> cell value.
// Cells are strings, numbers (float64, int, int64), or nil.
type RawRow map[string]any

// Field is a canonical lead field name.
type Field string

// Canonical lead fields recognized in spreadsheet input.
const (
	Name       Field = "name"
	Contact    Field = "contact"
	Email      Field = "email"
	City       Field = "city"
	University Field = "university"
	Course     Field = "course"
	Profession Field = "profession"
	Source     Field = "source"
)

// Spec describes one canonical field: the header variants that map to it
// and the value used when a row leaves it blank.
type Spec struct {
	Field    Field
	Variants []string
	Default  string
}

// DefaultSpecs is the header table used for lead uploads. Order matters:
// the first field whose variants contain a header wins.
var DefaultSpecs = []Spec{
	{Field: Name, Default: models.UnknownName, Variants: []string{
		"name", "full name", "fullname", "student name", "lead name", "candidate name", "customer name",
	}},
	{Field: Contact, Default: "", Variants: []string{
		"contact", "phone", "phone number", "mobile", "mobile number", "mobile no", "mobile no.",
		"contact number", "contact no", "contact no.", "whatsapp", "whatsapp number", "number", "cell",
	}},
	{Field: Email, Default: "", Variants: []string{
		"email", "e-mail", "email id", "email address", "mail", "mail id",
	}},
	{Field: City, Default: models.NotApplicable, Variants: []string{
		"city", "location", "town", "current city",
	}},
	{Field: University, Default: models.NotApplicable, Variants: []string{
		"university", "college", "institute", "institution", "school", "university name", "college name",
	}},
	{Field: Course, Default: models.NotApplicable, Variants: []string{
		"course", "program", "programme", "course name", "interested course", "degree",
	}},
	{Field: Profession, Default: models.NotApplicable, Variants: []string{
		"profession", "occupation", "designation", "job", "job title", "current profession",
	}},
	{Field: Source, Default: models.NotApplicable, Variants: []string{
		"source", "lead source", "campaign", "channel", "utm source",
	}},
}

// Canonical is a mapped row: every canonical field carries a normalized value.
type Canonical map[Field]string

// Mapper translates RawRows into Canonical rows.
type Mapper struct {
	specs  []Spec
	lookup map[string]Field
}

// NewMapper builds a Mapper from specs. A header variant claimed by two
// fields is a configuration error.
func NewMapper(specs []Spec) (*Mapper, error) {
	m := &Mapper{specs: specs, lookup: make(map[string]Field)}
	for _, s := range specs {
		for _, v := range s.Variants {
			key := normalizeHeader(v)
			if prev, ok := m.lookup[key]; ok && prev != s.Field {
				return nil, fmt.Errorf("header %q maps to both %q and %q", v, prev, s.Field)
			}
			m.lookup[key] = s.Field
		}
	}
	return m, nil
}

// Default returns a Mapper over DefaultSpecs.
func Default() *Mapper {
	m, err := NewMapper(DefaultSpecs)
	if err != nil {
		panic(err)
	}
	return m
}

// FieldFor returns the canonical field a header maps to.
func (m *Mapper) FieldFor(header string) (Field, bool) {
	f, ok := m.lookup[normalizeHeader(header)]
	return f, ok
}

// Map normalizes row into a Canonical. It never fails: unknown headers are
// ignored and missing or blank cells take the field default. When several
// headers map to the same field, the earliest variant in the field's list
// with a non-blank value wins.
func (m *Mapper) Map(row RawRow) Canonical {
	cells := make(map[string]string, len(row))
	for header, raw := range row {
		if v := cellString(raw); v != "" {
			cells[normalizeHeader(header)] = v
		}
	}

	out := make(Canonical, len(m.specs))
	for _, s := range m.specs {
		out[s.Field] = s.Default
		for _, variant := range s.Variants {
			if v, ok := cells[normalizeHeader(variant)]; ok {
				out[s.Field] = v
				break
			}
		}
	}
	return out
}

// Summary reports how a header row was interpreted.
type Summary struct {
	Recognized   map[string]Field `json:"recognized"`
	Unrecognized []string         `json:"unrecognized"`
	Missing      []Field          `json:"missing"`
}

// Summarize reports which headers were recognized and which canonical
// fields have no column. It does not affect ingestion.
func (m *Mapper) Summarize(headers []string) Summary {
	sum := Summary{Recognized: make(map[string]Field)}
	seen := make(map[Field]bool)
	for _, h := range headers {
		if strings.TrimSpace(h) == "" {
			continue
		}
		if f, ok := m.FieldFor(h); ok {
			sum.Recognized[h] = f
			seen[f] = true
			continue
		}
		sum.Unrecognized = append(sum.Unrecognized, h)
	}
	for _, s := range m.specs {
		if !seen[s.Field] {
			sum.Missing = append(sum.Missing, s.Field)
		}
	}
	return sum
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
}

// cellString stringifies a cell and trims it. Whole floats render without
// a fractional part so phone numbers read from numeric cells keep their digits.
func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e18 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return cellString(float64(t))
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
