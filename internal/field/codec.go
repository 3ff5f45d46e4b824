// internal/field/codec.go
//
// Wire and persisted encoding of field definitions.
//
// Context
// -------
// Clients and the record store speak the open configuration bag:
//
//	{"id":"field-…","dbId":"…","type":"number","label":"Age","order":1,
//	 "config":{"required":true,"min":0,"max":120}}
//
// Bag is that attribute map as a struct.  Decoding is type-directed: the
// bag is folded into the Config variant for the field's type, and keys the
// type does not use are dropped.  Encoding only emits keys the variant owns.
//
// Notes
// -----
// • Conditions accept either "targetFieldId" or the shorter "fieldId".
// • Merge overlays a partial bag key-by-key, the editor's shallow merge.
package field

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Bag is the open configuration attribute map.
type Bag struct {
	Required    bool       `json:"required" yaml:"required"`
	Placeholder string     `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Options     []string   `json:"options,omitempty" yaml:"options,omitempty"`
	Min         *float64   `json:"min,omitempty" yaml:"min,omitempty"`
	Max         *float64   `json:"max,omitempty" yaml:"max,omitempty"`
	MaxRating   int        `json:"maxRating,omitempty" yaml:"maxRating,omitempty"`
	Rows        []string   `json:"rows,omitempty" yaml:"rows,omitempty"`
	Columns     []string   `json:"columns,omitempty" yaml:"columns,omitempty"`
	ImageURLs   []string   `json:"imageUrls,omitempty" yaml:"imageUrls,omitempty"`
	FileTypes   []string   `json:"fileTypes,omitempty" yaml:"fileTypes,omitempty"`
	MaxFileSize int64      `json:"maxFileSize,omitempty" yaml:"maxFileSize,omitempty"`
	HelpText    string     `json:"helpText,omitempty" yaml:"helpText,omitempty"`
	Condition   *Condition `json:"condition,omitempty" yaml:"condition,omitempty"`
}

// Bag flattens d's attributes into the open map shape.
func (d Definition) Bag() Bag {
	b := Bag{Required: d.Required, Placeholder: d.Placeholder}
	if d.Condition != nil {
		c := *d.Condition
		b.Condition = &c
	}
	switch c := d.Config.(type) {
	case LongTextConfig:
		b.HelpText = c.HelpText
	case NumberConfig:
		b.Min, b.Max = c.Min, c.Max
	case ChoiceConfig:
		b.Options = cloneStrings(c.Options)
	case PictureChoiceConfig:
		b.Options = cloneStrings(c.Options)
		b.ImageURLs = cloneStrings(c.ImageURLs)
	case RatingConfig:
		b.MaxRating = c.MaxRating
	case MatrixConfig:
		b.Rows = cloneStrings(c.Rows)
		b.Columns = cloneStrings(c.Columns)
	case FileConfig:
		b.FileTypes = cloneStrings(c.FileTypes)
		b.MaxFileSize = c.MaxFileSize
	}
	return b
}

// ConfigFor builds the Config variant of type t from bag b, ignoring keys
// the type does not use.  Unknown types yield nil.
func ConfigFor(t Type, b Bag) Config {
	switch t {
	case TypeLongText:
		return LongTextConfig{HelpText: b.HelpText}
	case TypeNumber:
		return NumberConfig{Min: b.Min, Max: b.Max}.clone()
	case TypeCheckbox, TypeRadio, TypeDropdown, TypeRanking:
		return ChoiceConfig{Options: cloneStrings(b.Options)}
	case TypePictureChoice:
		return PictureChoiceConfig{Options: cloneStrings(b.Options), ImageURLs: cloneStrings(b.ImageURLs)}
	case TypeRating:
		return RatingConfig{MaxRating: b.MaxRating}
	case TypeMatrix:
		return MatrixConfig{Rows: cloneStrings(b.Rows), Columns: cloneStrings(b.Columns)}
	case TypeFile:
		return FileConfig{FileTypes: cloneStrings(b.FileTypes), MaxFileSize: b.MaxFileSize}
	}
	return EmptyConfig(t)
}

// WithBag returns d with shared attributes and Config taken from b.
func (d Definition) WithBag(b Bag) Definition {
	d.Required = b.Required
	d.Placeholder = b.Placeholder
	d.Condition = nil
	if b.Condition != nil && b.Condition.TargetFieldID != "" {
		c := *b.Condition
		d.Condition = &c
	}
	d.Config = ConfigFor(d.Type, b)
	return d
}

// Merge overlays patch onto d's bag, one top-level key at a time.  A key
// present with a null value clears that attribute.
func (d Definition) Merge(patch map[string]any) (Definition, error) {
	if len(patch) == 0 {
		return d, nil
	}
	cur, err := json.Marshal(d.Bag())
	if err != nil {
		return d, err
	}
	m := make(map[string]any)
	if err := json.Unmarshal(cur, &m); err != nil {
		return d, err
	}
	for k, v := range patch {
		if v == nil {
			delete(m, k)
			continue
		}
		m[k] = v
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return d, err
	}
	var b Bag
	if err := json.Unmarshal(raw, &b); err != nil {
		return d, fmt.Errorf("merge config: %w", err)
	}
	return d.WithBag(b), nil
}

/*──────────────────────────── JSON ────────────────────────────*/

type wireDefinition struct {
	ID          string `json:"id"`
	PersistedID string `json:"dbId,omitempty"`
	Type        Type   `json:"type"`
	Label       string `json:"label"`
	Order       int    `json:"order"`
	Config      Bag    `json:"config"`
}

// MarshalJSON emits the open-bag wire shape.
func (d Definition) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireDefinition{
		ID:          d.ID,
		PersistedID: d.PersistedID,
		Type:        d.Type,
		Label:       d.Label,
		Order:       d.Order,
		Config:      d.Bag(),
	})
}

// UnmarshalJSON decodes the wire shape, rejecting unknown field types.
func (d *Definition) UnmarshalJSON(data []byte) error {
	var w wireDefinition
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if !w.Type.Valid() {
		return fmt.Errorf("unknown field type %q", w.Type)
	}
	*d = Definition{
		ID:          w.ID,
		PersistedID: w.PersistedID,
		Type:        w.Type,
		Label:       w.Label,
		Order:       w.Order,
	}.WithBag(w.Config)
	return nil
}

// UnmarshalJSON accepts "fieldId" as an alias of "targetFieldId".
func (c *Condition) UnmarshalJSON(data []byte) error {
	var w struct {
		TargetFieldID string   `json:"targetFieldId"`
		FieldID       string   `json:"fieldId"`
		Operator      Operator `json:"operator"`
		Value         any      `json:"value"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	c.TargetFieldID = w.TargetFieldID
	if c.TargetFieldID == "" {
		c.TargetFieldID = w.FieldID
	}
	c.Operator = w.Operator
	switch v := w.Value.(type) {
	case nil:
		c.Value = ""
	case string:
		c.Value = v
	case float64:
		c.Value = formatOperand(v)
	case bool:
		c.Value = strconv.FormatBool(v)
	default:
		c.Value = fmt.Sprint(v)
	}
	return nil
}

// formatOperand writes a number the way an answer of the same value is
// stringified at evaluation time: no exponent, shortest round-trip digits.
func formatOperand(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
