package agreement

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/dkamau/sahihi/core"
)

func newValidator() *validator.Validate {
	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	return validate
}

func TestElementUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantKind string
		wantErr  string
	}{
		{
			name:     "field group",
			payload:  `{"kind": "field_group", "fields": [{"name": "signer.name", "label": "Name", "kind": "text"}]}`,
			wantKind: ElementFieldGroup,
		},
		{
			name:     "text block",
			payload:  `{"kind": "text", "style": "heading", "content": "Welcome"}`,
			wantKind: ElementText,
		},
		{
			name:     "table",
			payload:  `{"kind": "table", "title": "Program Cost", "rows": [["Program Total", "$100.00"]]}`,
			wantKind: ElementTable,
		},
		{
			name:     "list",
			payload:  `{"kind": "list", "ordered": true, "items": ["a", "b"]}`,
			wantKind: ElementList,
		},
		{
			name:     "acknowledgement list",
			payload:  `{"kind": "acknowledgement_list", "items": [{"id": "x", "label": "X", "required": true}]}`,
			wantKind: ElementAcknowledgementList,
		},
		{
			name:    "unknown kind fails closed",
			payload: `{"kind": "carousel", "slides": []}`,
			wantErr: `unknown element kind "carousel"`,
		},
		{
			name:    "missing kind fails closed",
			payload: `{"title": "anonymous"}`,
			wantErr: `unknown element kind ""`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var el Element
			err := json.Unmarshal([]byte(tt.payload), &el)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Unmarshal() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal() failed: %v", err)
			}
			if el.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", el.Kind, tt.wantKind)
			}
		})
	}
}

func TestElementMarshalRoundTrip(t *testing.T) {
	schema := testSchema()

	data, err := json.Marshal(schema)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}

	decoded := new(AgreementSchema)
	if err := json.Unmarshal(data, decoded); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}

	if len(decoded.Sections) != len(schema.Sections) {
		t.Fatalf("Sections = %d, want %d", len(decoded.Sections), len(schema.Sections))
	}
	if got, want := len(decoded.Fields()), len(schema.Fields()); got != want {
		t.Errorf("Fields() = %d, want %d", got, want)
	}
	if got, want := len(decoded.Acknowledgements()), len(schema.Acknowledgements()); got != want {
		t.Errorf("Acknowledgements() = %d, want %d", got, want)
	}
}

func TestAgreementSchemaValidate(t *testing.T) {
	validate := newValidator()

	t.Run("valid schema", func(t *testing.T) {
		if err := testSchema().Validate(validate); err != nil {
			t.Errorf("Validate() failed: %v", err)
		}
	})

	t.Run("duplicate field names", func(t *testing.T) {
		schema := testSchema()
		grp := schema.Sections[0].Elements[0].FieldGroup
		grp.Fields = append(grp.Fields, FieldDefinition{Name: "signer.name", Label: "Name Again", Kind: FieldText})

		err := schema.Validate(validate)
		vErr, ok := err.(*core.ValidationError)
		if !ok {
			t.Fatalf("Validate() error = %v, want *core.ValidationError", err)
		}
		if len(vErr.Fields) != 1 || vErr.Fields[0].Field != "signer.name" {
			t.Errorf("Fields = %+v, want one error on signer.name", vErr.Fields)
		}
	})

	t.Run("duplicate acknowledgement ids", func(t *testing.T) {
		schema := testSchema()
		acks := schema.Sections[2].Elements[2].Acknowledgements
		acks.Items = append(acks.Items, Acknowledgement{ID: "refund_policy", Label: "dup"})

		err := schema.Validate(validate)
		vErr, ok := err.(*core.ValidationError)
		if !ok {
			t.Fatalf("Validate() error = %v, want *core.ValidationError", err)
		}
		if len(vErr.Fields) != 1 || vErr.Fields[0].Field != "refund_policy" {
			t.Errorf("Fields = %+v, want one error on refund_policy", vErr.Fields)
		}
	})

	t.Run("missing title", func(t *testing.T) {
		schema := testSchema()
		schema.Title = ""
		if err := schema.Validate(validate); err == nil {
			t.Error("Validate() should fail on missing title")
		}
	})
}
