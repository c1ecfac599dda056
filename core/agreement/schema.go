// Package agreement implements the enrollment-agreement engine: a declarative
// schema model, a dot-path form value store, derived-field and visibility
// rules, validation, and the two-step signing session.
package agreement

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/dkamau/sahihi/core"
)

// DefaultToday is the FieldDefinition.DefaultValue sentinel resolved to the
// current local date (YYYY-MM-DD) when form values are initialized.
const DefaultToday = "today"

// Element kinds
const (
	ElementFieldGroup          = "field_group"
	ElementText                = "text"
	ElementTable               = "table"
	ElementList                = "list"
	ElementAcknowledgementList = "acknowledgement_list"
)

// Field component kinds
const (
	FieldText     = "text"
	FieldEmail    = "email"
	FieldTel      = "tel"
	FieldDate     = "date"
	FieldTextarea = "textarea"
	FieldSelect   = "select"
	FieldCurrency = "currency"
)

type (
	// AgreementSchema is the declarative document definition. It is owned by
	// the document service and read-only to the engine.
	AgreementSchema struct {
		ID       string    `json:"id" validate:"required"`
		Version  string    `json:"version"`
		Title    string    `json:"title" validate:"required"`
		Branding *Branding `json:"branding,omitempty"`
		Sections []Section `json:"sections" validate:"required,min=1,dive"`
	}

	Branding struct {
		SchoolName  string `json:"school_name"`
		LogoURL     string `json:"logo_url"`
		AccentColor string `json:"accent_color"`
	}

	// Section is an ordered group of elements; order is rendering order.
	Section struct {
		ID          string    `json:"id" validate:"required"`
		Title       string    `json:"title" validate:"required"`
		Description string    `json:"description,omitempty"`
		Elements    []Element `json:"elements" validate:"required,min=1,dive"`
	}

	// Element is a tagged union; exactly one variant is non-nil, selected by Kind.
	Element struct {
		Kind             string               `json:"kind"`
		FieldGroup       *FieldGroup          `json:"-"`
		Text             *TextBlock           `json:"-"`
		Table            *TableBlock          `json:"-"`
		List             *ListBlock           `json:"-"`
		Acknowledgements *AcknowledgementList `json:"-"`
	}

	FieldGroup struct {
		Title       string            `json:"title,omitempty"`
		Description string            `json:"description,omitempty"`
		Layout      string            `json:"layout,omitempty" validate:"omitempty,oneof=single-column two-column"`
		Fields      []FieldDefinition `json:"fields" validate:"required,min=1,dive"`
	}

	TextBlock struct {
		Style   string `json:"style" validate:"required,oneof=heading subheading body"`
		Content string `json:"content" validate:"required"`
	}

	// TableBlock is read-only display, but its cells may carry values the
	// derivation engine reads (e.g. the "Program Total" row).
	TableBlock struct {
		Title  string     `json:"title,omitempty"`
		Header []string   `json:"header,omitempty"`
		Rows   [][]string `json:"rows" validate:"required,min=1"`
	}

	ListBlock struct {
		Ordered bool     `json:"ordered,omitempty"`
		Items   []string `json:"items" validate:"required,min=1"`
	}

	AcknowledgementList struct {
		Title string            `json:"title,omitempty"`
		Items []Acknowledgement `json:"items" validate:"required,min=1,dive"`
	}

	// Acknowledgement is an initials-entry item representing the signer's
	// explicit agreement to one clause.
	Acknowledgement struct {
		ID       string `json:"id" validate:"required"`
		Label    string `json:"label" validate:"required"`
		Required bool   `json:"required,omitempty"`
		MaxLen   int    `json:"max_initials_length,omitempty"`
	}

	// FieldDefinition describes one editable input. Name is a dot-path into
	// the form value tree and uniquely identifies the field's storage location.
	FieldDefinition struct {
		Name         string   `json:"name" validate:"required,dotpath"`
		Label        string   `json:"label" validate:"required"`
		Kind         string   `json:"kind" validate:"required,oneof=text email tel date textarea select currency"`
		Required     bool     `json:"required,omitempty"`
		Placeholder  string   `json:"placeholder,omitempty"`
		HelperText   string   `json:"helper_text,omitempty"`
		Options      []Option `json:"options,omitempty"`
		DefaultValue string   `json:"default_value,omitempty"`
		ReadOnly     bool     `json:"read_only,omitempty"`
		Width        string   `json:"width,omitempty"`
		MaxLength    int      `json:"max_length,omitempty"`
	}

	Option struct {
		Value string `json:"value"`
		Label string `json:"label"`
	}
)

type elementEnvelope struct {
	Kind string `json:"kind"`
}

// UnmarshalJSON decodes the element variant selected by "kind".
// An unrecognized kind is an error: rendering must fail closed rather than
// silently skip content the signer is expected to read.
func (e *Element) UnmarshalJSON(data []byte) error {
	var env elementEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	e.Kind = env.Kind

	switch env.Kind {
	case ElementFieldGroup:
		e.FieldGroup = new(FieldGroup)
		return json.Unmarshal(data, e.FieldGroup)
	case ElementText:
		e.Text = new(TextBlock)
		return json.Unmarshal(data, e.Text)
	case ElementTable:
		e.Table = new(TableBlock)
		return json.Unmarshal(data, e.Table)
	case ElementList:
		e.List = new(ListBlock)
		return json.Unmarshal(data, e.List)
	case ElementAcknowledgementList:
		e.Acknowledgements = new(AcknowledgementList)
		return json.Unmarshal(data, e.Acknowledgements)
	default:
		return fmt.Errorf("agreement: unknown element kind %q", env.Kind)
	}
}

func (e Element) MarshalJSON() ([]byte, error) {
	var variant interface{}
	switch e.Kind {
	case ElementFieldGroup:
		variant = e.FieldGroup
	case ElementText:
		variant = e.Text
	case ElementTable:
		variant = e.Table
	case ElementList:
		variant = e.List
	case ElementAcknowledgementList:
		variant = e.Acknowledgements
	default:
		return nil, fmt.Errorf("agreement: unknown element kind %q", e.Kind)
	}

	raw, err := json.Marshal(variant)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	m["kind"] = e.Kind
	return json.Marshal(m)
}

// Fields returns every field definition across all sections, in schema order.
func (s *AgreementSchema) Fields() []FieldDefinition {
	var flds []FieldDefinition
	for _, sec := range s.Sections {
		for _, el := range sec.Elements {
			if el.Kind == ElementFieldGroup && el.FieldGroup != nil {
				flds = append(flds, el.FieldGroup.Fields...)
			}
		}
	}
	return flds
}

// Acknowledgements returns every acknowledgement item across all sections, in schema order.
func (s *AgreementSchema) Acknowledgements() []Acknowledgement {
	var acks []Acknowledgement
	for _, sec := range s.Sections {
		for _, el := range sec.Elements {
			if el.Kind == ElementAcknowledgementList && el.Acknowledgements != nil {
				acks = append(acks, el.Acknowledgements.Items...)
			}
		}
	}
	return acks
}

// FieldByName returns the definition stored under the given dot-path name.
func (s *AgreementSchema) FieldByName(name string) (FieldDefinition, bool) {
	for _, fld := range s.Fields() {
		if fld.Name == name {
			return fld, true
		}
	}
	return FieldDefinition{}, false
}

// Validate applies struct-level tags plus the union-level rules tags cannot
// express: two fields must not share a name and ack IDs must be unique.
func (s *AgreementSchema) Validate(validate *validator.Validate) error {
	if err := validate.Struct(s); err != nil {
		return err
	}

	var fldErrs []core.FieldError
	seenFields := make(map[string]bool)
	for _, fld := range s.Fields() {
		if seenFields[fld.Name] {
			fldErrs = append(fldErrs, core.FieldError{
				Field: fld.Name,
				Error: "duplicate field name",
			})
		}
		seenFields[fld.Name] = true
	}

	seenAcks := make(map[string]bool)
	for _, ack := range s.Acknowledgements() {
		if seenAcks[ack.ID] {
			fldErrs = append(fldErrs, core.FieldError{
				Field: ack.ID,
				Error: "duplicate acknowledgement id",
			})
		}
		seenAcks[ack.ID] = true
	}

	if len(fldErrs) > 0 {
		return core.NewValidationError(nil, fldErrs...)
	}
	return nil
}
