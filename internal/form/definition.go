// internal/form/definition.go
//
// YAML form definitions.
//
// Context
// -------
// A form can be exported as a YAML document and imported again as a new
// draft, which is how owners move forms between accounts or keep them in
// version control.  The document carries the title, description,
// settings, and ordered fields.  Slugs, owners, and record ids are not
// exported; an import always gets fresh ones.
//
// Example
// -------
//
//	title: Pet survey
//	settings:
//	  thankYouMessage: Thanks!
//	fields:
//	  - id: field-1
//	    type: radio
//	    label: Do you have pets?
//	    config:
//	      required: true
//	      options: [Yes, No]
//
// Notes
// -----
// • Field configuration uses the same open attribute bag as the JSON API.
// • Oxford commas, two spaces after periods.
package form

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/yanizio/adept-forms/internal/field"
	"github.com/yanizio/adept-forms/internal/store"
)

// Document is the YAML shape of one form.
type Document struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description,omitempty"`
	Settings    store.Settings `yaml:"settings,omitempty"`
	Fields      []FieldDoc     `yaml:"fields"`
}

// FieldDoc is the YAML shape of one field.
type FieldDoc struct {
	ID     string     `yaml:"id"`
	Type   field.Type `yaml:"type"`
	Label  string     `yaml:"label"`
	Config field.Bag  `yaml:"config"`
}

// NewDocument builds a Document from a stored form and its fields.
func NewDocument(f store.Form, fields []field.Definition) Document {
	doc := Document{
		Title:       f.Title,
		Description: f.Description,
		Settings:    f.Settings,
		Fields:      make([]FieldDoc, len(fields)),
	}
	for i, d := range fields {
		doc.Fields[i] = FieldDoc{ID: d.ID, Type: d.Type, Label: d.Label, Config: d.Bag()}
	}
	return doc
}

// MarshalDocument renders doc as YAML.
func MarshalDocument(doc Document) ([]byte, error) {
	return yaml.Marshal(doc)
}

// ParseDocument decodes YAML into a Document and converts its fields.
// Missing field ids are generated and orders follow document position.
func ParseDocument(data []byte) (Document, []field.Definition, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	fields := make([]field.Definition, 0, len(doc.Fields))
	for i, fd := range doc.Fields {
		if !fd.Type.Valid() {
			return Document{}, nil, fmt.Errorf("%w: fields[%d]: unknown type %q", ErrInvalidInput, i, fd.Type)
		}
		id := fd.ID
		if id == "" {
			id = field.NewID()
		}
		d := field.Definition{ID: id, Type: fd.Type, Label: fd.Label, Order: i}
		fields = append(fields, d.WithBag(fd.Config))
	}
	return doc, fields, nil
}
