package document

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/dkamau/sahihi/core"
	"github.com/dkamau/sahihi/core/agreement"
)

type (
	// Document is one signing session: an agreement template bound to a signer
	// behind an opaque single-use token.
	Document struct {
		ID                  int                        `json:"id"`
		Token               string                     `json:"token"`
		TemplateName        string                     `json:"template_name"`
		TemplateDescription string                     `json:"template_description"`
		SignerName          string                     `json:"signer_name"`
		SignerEmail         string                     `json:"signer_email"`
		CourseType          string                     `json:"course_type"`
		CourseLabel         string                     `json:"course_label"`
		ExpiresAt           time.Time                  `json:"expires_at"` // UTC
		FormData            agreement.FormValues       `json:"form_data"`
		Schema              *agreement.AgreementSchema `json:"agreement_schema"`
		SignatureData       string                     `json:"-"`
		TypedName           string                     `json:"typed_name,omitempty"`
		SignedAt            null.Time                  `json:"signed_at,omitempty"` // UTC
		CreatedAt           time.Time                  `json:"created_at"`          // UTC
		UpdatedAt           time.Time                  `json:"updated_at"`          // UTC
	}

	// NewDocument is the payload for minting a signing request.
	NewDocument struct {
		TemplateName        string                     `json:"template_name" validate:"required"`
		TemplateDescription string                     `json:"template_description"`
		SignerName          string                     `json:"signer_name" validate:"required"`
		SignerEmail         string                     `json:"signer_email" validate:"required,email"`
		CourseType          string                     `json:"course_type"`
		CourseLabel         string                     `json:"course_label"`
		FormData            agreement.FormValues       `json:"form_data"`
		Schema              *agreement.AgreementSchema `json:"agreement_schema" validate:"required"`
	}
)

func (d Document) Signed() bool {
	return d.SignedAt.Valid
}

func (d Document) Expired(now time.Time) bool {
	return !d.ExpiresAt.IsZero() && now.After(d.ExpiresAt)
}

// SigningDocument is the public projection handed to the signing engine;
// it never exposes the signature artifact.
func (d Document) SigningDocument() agreement.SigningDocument {
	return agreement.SigningDocument{
		TemplateName:        d.TemplateName,
		TemplateDescription: d.TemplateDescription,
		SignerName:          d.SignerName,
		SignerEmail:         d.SignerEmail,
		ExpiresAt:           d.ExpiresAt,
		CourseType:          d.CourseType,
		CourseLabel:         d.CourseLabel,
		FormData:            d.FormData,
		Schema:              d.Schema,
	}
}

func (nd *NewDocument) Validate(validate *validator.Validate) error {
	nd.SignerName = core.CleanString(nd.SignerName)
	nd.SignerEmail = core.CleanString(nd.SignerEmail, true /* lower */)
	if err := validate.Struct(nd); err != nil {
		return err
	}
	return nd.Schema.Validate(validate)
}
