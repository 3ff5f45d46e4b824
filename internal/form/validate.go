// internal/form/validate.go
//
// Management input validation.
//
// Context
// -------
// Submissions are checked by internal/schema.  This file covers the other
// direction: what an owner may store.  Titles, descriptions, labels, and
// settings are checked with go-playground/validator and every failure is
// reported at once as an *InputError.
//
// Limits
// ------
//	title        1–200
//	description  ≤500
//	label        1–200 (layout fields may be blank)
//	placeholder  ≤200
//	help text    ≤500
//	order        ≥0
//
// Notes
// -----
// • Error keys use the JSON names clients send: "title",
//   "fields[2].label", "settings.redirectUrl".
// • Oxford commas, two spaces after periods.
package form

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yanizio/adept-forms/internal/field"
	"github.com/yanizio/adept-forms/internal/sanitize"
	"github.com/yanizio/adept-forms/internal/schema"
	"github.com/yanizio/adept-forms/internal/store"
)

const (
	MaxTitle       = 200
	MaxDescription = 500
	MaxLabel       = 200
	MaxPlaceholder = 200
	MaxHelpText    = 500
)

var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// checker accumulates failures for one input.
type checker struct {
	errs []schema.FieldError
}

func (c *checker) check(key, name string, value any, tag string) {
	err := validate.Var(value, tag)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.errs = append(c.errs, schema.FieldError{Field: key, Message: err.Error()})
		return
	}
	for _, fe := range verrs {
		c.errs = append(c.errs, schema.FieldError{Field: key, Message: message(name, fe)})
	}
}

func (c *checker) add(key, msg string) {
	c.errs = append(c.errs, schema.FieldError{Field: key, Message: msg})
}

func (c *checker) err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return invalid(c.errs...)
}

func message(name string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "url":
		return name + " must be a valid URL"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return fmt.Sprintf("%s failed %q", name, fe.Tag())
}

/*──────────────────────────── inputs ────────────────────────────*/

// CreateInput is the body of a create request.
type CreateInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateInput is a partial form update.  Nil members are left alone.
// Settings merges key by key; Fields replaces the whole list.
type UpdateInput struct {
	Title       *string             `json:"title,omitempty"`
	Description *string             `json:"description,omitempty"`
	Status      *store.Status       `json:"status,omitempty"`
	Settings    map[string]any      `json:"settings,omitempty"`
	Fields      *[]field.Definition `json:"fields,omitempty"`
}

func (in CreateInput) validate() error {
	var c checker
	c.check("title", "Title", sanitize.Text(in.Title), fmt.Sprintf("required,max=%d", MaxTitle))
	c.check("description", "Description", in.Description, fmt.Sprintf("max=%d", MaxDescription))
	return c.err()
}

func (in UpdateInput) validate() error {
	var c checker
	if in.Title != nil {
		c.check("title", "Title", sanitize.Text(*in.Title), fmt.Sprintf("required,max=%d", MaxTitle))
	}
	if in.Description != nil {
		c.check("description", "Description", *in.Description, fmt.Sprintf("max=%d", MaxDescription))
	}
	if in.Status != nil && !in.Status.Valid() {
		c.add("status", "Status must be draft or published")
	}
	if in.Fields != nil {
		checkFields(&c, *in.Fields)
	}
	return c.err()
}

// ValidateFields checks a field list against the structural rules and the
// length limits.
func ValidateFields(fields []field.Definition) error {
	var c checker
	checkFields(&c, fields)
	return c.err()
}

func checkFields(c *checker, fields []field.Definition) {
	for i, f := range fields {
		prefix := fmt.Sprintf("fields[%d].", i)
		if err := f.Validate(); err != nil {
			c.add(prefix+"type", err.Error())
			continue
		}
		labelTag := fmt.Sprintf("required,max=%d", MaxLabel)
		if f.Type.IsLayout() {
			labelTag = fmt.Sprintf("max=%d", MaxLabel)
		}
		// Labels are stored sanitized, so "<>" must count as empty.
		c.check(prefix+"label", "Label", sanitize.Text(f.Label), labelTag)
		c.check(prefix+"placeholder", "Placeholder", f.Placeholder, fmt.Sprintf("max=%d", MaxPlaceholder))
		if lt, ok := f.Config.(field.LongTextConfig); ok {
			c.check(prefix+"helpText", "Help text", lt.HelpText, fmt.Sprintf("max=%d", MaxHelpText))
		}
		c.check(prefix+"order", "Order", f.Order, "min=0")
	}
}

// ValidateSettings checks the URL and enum members of s.
func ValidateSettings(s store.Settings) error {
	var c checker
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			c.add("settings."+fe.Field(), message(fe.Field(), fe))
		}
	}
	if s.WebhookEnabled && s.WebhookURL == "" {
		c.add("settings.webhookUrl", "webhookUrl is required when the webhook is enabled")
	}
	return c.err()
}
