// internal/field/definition.go
//
// Field definition model.
//
// Context
// -------
// A Definition is one question or layout element of a form.  Attributes
// shared by every type (required flag, placeholder, visibility condition)
// live directly on the struct.  Type-specific settings live in Config, a
// sealed sum type with one variant per configuration shape, so a field can
// never carry, say, numeric bounds on a radio button.
//
// Definitions are plain values.  Editors copy them freely and the store
// replaces a form's whole list at once.
//
// Notes
// -----
// • ID is client-assigned and stable for one editing session.  PersistedID
//   is filled once the store has written the field.
// • Order is the zero-based dense rank within the form.
// • Oxford commas, two spaces after periods.
package field

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Operator names one comparison of a visibility Condition.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpIsEmpty     Operator = "is_empty"
	OpIsNotEmpty  Operator = "is_not_empty"
)

// NeedsValue reports whether op compares against Condition.Value.
func (op Operator) NeedsValue() bool { return op != OpIsEmpty && op != OpIsNotEmpty }

// Known reports whether op is one of the supported operators.
func (op Operator) Known() bool {
	switch op {
	case OpEquals, OpNotEquals, OpContains, OpNotContains,
		OpGreaterThan, OpLessThan, OpIsEmpty, OpIsNotEmpty:
		return true
	}
	return false
}

// Condition gates a field's visibility on another field's current value.
type Condition struct {
	TargetFieldID string   `json:"targetFieldId" yaml:"targetFieldId"`
	Operator      Operator `json:"operator" yaml:"operator"`
	Value         string   `json:"value,omitempty" yaml:"value,omitempty"`
}

// Definition describes one form field.
type Definition struct {
	ID          string
	PersistedID string
	Type        Type
	Label       string
	Order       int
	Required    bool
	Placeholder string
	Condition   *Condition
	Config      Config
}

// Key returns the value key used to address this field's answer.
func (d Definition) Key() string { return ValueKey(d.Label) }

// -----------------------------------------------------------------------------
// Config variants
// -----------------------------------------------------------------------------

// Config is implemented only by the variants in this file.
type Config interface {
	accepts(Type) bool
	clone() Config
}

// PlainConfig serves text, email, phone, url, date, and signature fields.
type PlainConfig struct{}

// LongTextConfig carries optional help text shown under a long-text area.
type LongTextConfig struct {
	HelpText string
}

// NumberConfig holds optional inclusive bounds.
type NumberConfig struct {
	Min *float64
	Max *float64
}

// ChoiceConfig lists options for checkbox, radio, dropdown, and ranking.
type ChoiceConfig struct {
	Options []string
}

// PictureChoiceConfig pairs each option with an image, by position.
type PictureChoiceConfig struct {
	Options   []string
	ImageURLs []string
}

// RatingConfig sets the top of the 1..MaxRating scale.
type RatingConfig struct {
	MaxRating int
}

// MatrixConfig lists the grid's rows and columns.
type MatrixConfig struct {
	Rows    []string
	Columns []string
}

// FileConfig restricts uploads.  Enforcement belongs to the upload handler.
type FileConfig struct {
	FileTypes   []string
	MaxFileSize int64
}

// LayoutConfig serves divider and page_break.
type LayoutConfig struct{}

// DefaultMaxRating applies when a rating field does not set MaxRating.
const DefaultMaxRating = 5

func (PlainConfig) accepts(t Type) bool {
	switch t {
	case TypeText, TypeEmail, TypePhone, TypeURL, TypeDate, TypeSignature:
		return true
	}
	return false
}
func (LongTextConfig) accepts(t Type) bool { return t == TypeLongText }
func (NumberConfig) accepts(t Type) bool   { return t == TypeNumber }
func (ChoiceConfig) accepts(t Type) bool {
	switch t {
	case TypeCheckbox, TypeRadio, TypeDropdown, TypeRanking:
		return true
	}
	return false
}
func (PictureChoiceConfig) accepts(t Type) bool { return t == TypePictureChoice }
func (RatingConfig) accepts(t Type) bool        { return t == TypeRating }
func (MatrixConfig) accepts(t Type) bool        { return t == TypeMatrix }
func (FileConfig) accepts(t Type) bool          { return t == TypeFile }
func (LayoutConfig) accepts(t Type) bool        { return t.IsLayout() }

func (c PlainConfig) clone() Config    { return c }
func (c LongTextConfig) clone() Config { return c }
func (c NumberConfig) clone() Config {
	out := NumberConfig{}
	if c.Min != nil {
		v := *c.Min
		out.Min = &v
	}
	if c.Max != nil {
		v := *c.Max
		out.Max = &v
	}
	return out
}
func (c ChoiceConfig) clone() Config { return ChoiceConfig{Options: cloneStrings(c.Options)} }
func (c PictureChoiceConfig) clone() Config {
	return PictureChoiceConfig{Options: cloneStrings(c.Options), ImageURLs: cloneStrings(c.ImageURLs)}
}
func (c RatingConfig) clone() Config { return c }
func (c MatrixConfig) clone() Config {
	return MatrixConfig{Rows: cloneStrings(c.Rows), Columns: cloneStrings(c.Columns)}
}
func (c FileConfig) clone() Config   { return FileConfig{FileTypes: cloneStrings(c.FileTypes), MaxFileSize: c.MaxFileSize} }
func (c LayoutConfig) clone() Config { return c }

// Max returns the configured maximum rating or the default of five.
func (c RatingConfig) Max() int {
	if c.MaxRating <= 0 {
		return DefaultMaxRating
	}
	return c.MaxRating
}

// EmptyConfig returns the zero variant for t, or nil for unknown types.
func EmptyConfig(t Type) Config {
	switch t {
	case TypeText, TypeEmail, TypePhone, TypeURL, TypeDate, TypeSignature:
		return PlainConfig{}
	case TypeLongText:
		return LongTextConfig{}
	case TypeNumber:
		return NumberConfig{}
	case TypeCheckbox, TypeRadio, TypeDropdown, TypeRanking:
		return ChoiceConfig{}
	case TypePictureChoice:
		return PictureChoiceConfig{}
	case TypeRating:
		return RatingConfig{}
	case TypeMatrix:
		return MatrixConfig{}
	case TypeFile:
		return FileConfig{}
	case TypeDivider, TypePageBreak:
		return LayoutConfig{}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Construction
// -----------------------------------------------------------------------------

// NewID returns a fresh client-side field identifier.
func NewID() string { return "field-" + uuid.NewString() }

// New builds a field of type t with the palette defaults: a type label,
// required=false, and starter options, scale, or grid where the type has
// them.
func New(t Type, id string, order int) Definition {
	d := Definition{
		ID:     id,
		Type:   t,
		Label:  defaultLabel(t),
		Order:  order,
		Config: EmptyConfig(t),
	}
	switch t {
	case TypeRadio, TypeCheckbox, TypeDropdown:
		d.Config = ChoiceConfig{Options: []string{"Option 1"}}
	case TypeRanking:
		d.Config = ChoiceConfig{Options: []string{"Option 1", "Option 2", "Option 3"}}
	case TypeRating:
		d.Config = RatingConfig{MaxRating: DefaultMaxRating}
	case TypeMatrix:
		d.Config = MatrixConfig{Rows: []string{"Row 1"}, Columns: []string{"Column 1"}}
	case TypePictureChoice:
		d.Config = PictureChoiceConfig{Options: []string{}, ImageURLs: []string{}}
	}
	return d
}

// Clone returns a deep copy of d.
func (d Definition) Clone() Definition {
	out := d
	if d.Condition != nil {
		c := *d.Condition
		out.Condition = &c
	}
	if d.Config != nil {
		out.Config = d.Config.clone()
	}
	return out
}

// Options returns the option list of choice-like configs, or nil.
func (d Definition) Options() []string {
	switch c := d.Config.(type) {
	case ChoiceConfig:
		return c.Options
	case PictureChoiceConfig:
		return c.Options
	}
	return nil
}

// -----------------------------------------------------------------------------
// Validation and text transforms
// -----------------------------------------------------------------------------

// ErrConfigMismatch is returned when Config does not belong to Type.
var ErrConfigMismatch = errors.New("config variant does not match field type")

// Validate checks the structural rules the store and compiler rely on.
func (d Definition) Validate() error {
	if !d.Type.Valid() {
		return fmt.Errorf("field %q: unknown type %q", d.ID, d.Type)
	}
	if d.Config == nil || !d.Config.accepts(d.Type) {
		return fmt.Errorf("field %q: %w", d.ID, ErrConfigMismatch)
	}
	if d.Order < 0 {
		return fmt.Errorf("field %q: order cannot be negative", d.ID)
	}
	if d.Condition != nil && d.Condition.Operator != "" && !d.Condition.Operator.Known() {
		return fmt.Errorf("field %q: unknown condition operator %q", d.ID, d.Condition.Operator)
	}
	return nil
}

// MapText returns a copy of d with fn applied to every user-authored
// string: label, placeholder, help text, options, rows, and columns.
// Image URLs and condition operands are left untouched.
func (d Definition) MapText(fn func(string) string) Definition {
	out := d.Clone()
	out.Label = fn(out.Label)
	out.Placeholder = fn(out.Placeholder)
	switch c := out.Config.(type) {
	case LongTextConfig:
		c.HelpText = fn(c.HelpText)
		out.Config = c
	case ChoiceConfig:
		c.Options = mapStrings(c.Options, fn)
		out.Config = c
	case PictureChoiceConfig:
		c.Options = mapStrings(c.Options, fn)
		out.Config = c
	case MatrixConfig:
		c.Rows = mapStrings(c.Rows, fn)
		c.Columns = mapStrings(c.Columns, fn)
		out.Config = c
	}
	return out
}

func mapStrings(in []string, fn func(string) string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = fn(s)
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// String is a compact debug form, e.g. `radio#3 "Has Pet"`.
func (d Definition) String() string {
	var b strings.Builder
	b.WriteString(string(d.Type))
	fmt.Fprintf(&b, "#%d %q", d.Order, d.Label)
	return b.String()
}
