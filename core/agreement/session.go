package agreement

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/dkamau/sahihi/core"
)

// Boundary errors. Implementations of DocumentService translate transport
// failures into these sentinels; everything else is a generic submission
// failure the signer may retry.
var (
	// ErrDocumentNotFound: token invalid or expired. Terminal.
	ErrDocumentNotFound = errors.New("document not found or link has expired")
	// ErrRateLimited: too many requests. Terminal for this attempt.
	ErrRateLimited = errors.New("too many requests, please try again later")
	// ErrAlreadySigned: the document was already signed. Terminal, never retried.
	ErrAlreadySigned = errors.New("this document has already been signed")
)

// Steps of the signing wizard, linear with no skipping.
type Step int

const (
	StepReview Step = iota
	StepSigning
	StepSigned
)

type (
	// SigningDocument is the payload behind a signing token.
	SigningDocument struct {
		TemplateName        string           `json:"template_name"`
		TemplateDescription string           `json:"template_description"`
		SignerName          string           `json:"signer_name"`
		SignerEmail         string           `json:"signer_email"`
		ExpiresAt           time.Time        `json:"expires_at"`
		CourseType          string           `json:"course_type"`
		CourseLabel         string           `json:"course_label"`
		FormData            FormValues       `json:"form_data"`
		Schema              *AgreementSchema `json:"agreement_schema"`
	}

	// SignRequest is the submission payload POSTed against a signing token.
	SignRequest struct {
		SignatureData string     `json:"signature_data" validate:"required"`
		TypedName     string     `json:"typed_name" validate:"required"`
		FormData      FormValues `json:"form_data" validate:"required"`
	}

	// DocumentService is the engine's only external boundary.
	DocumentService interface {
		FetchDocument(ctx context.Context, token string) (*SigningDocument, error)
		SubmitSignature(ctx context.Context, token string, req SignRequest) error
	}

	// Signature abstracts the drawn-signature pad: an emptiness predicate and
	// base64 image encoding (without a data-URL prefix).
	Signature interface {
		IsEmpty() bool
		EncodeImage() (string, error)
	}

	// Session drives one signing flow: load by token, edit, validate, sign,
	// submit exactly once. All state is local until the final submission.
	Session struct {
		svc   DocumentService
		token string

		doc    *SigningDocument
		values FormValues

		step       Step
		fieldErrs  []core.FieldError
		summary    string
		signingErr string
		terminal   bool
	}
)

// PNGSignature is a drawn signature captured as PNG bytes.
type PNGSignature []byte

func (s PNGSignature) IsEmpty() bool { return len(s) == 0 }

func (s PNGSignature) EncodeImage() (string, error) {
	return base64.StdEncoding.EncodeToString(s), nil
}

func NewSession(svc DocumentService, token string) *Session {
	return &Session{svc: svc, token: token, step: StepReview}
}

// Load fetches the document behind the session token and initializes the form
// value tree: prefilled data merged with schema defaults, derived fields
// computed. Classified boundary errors pass through untouched so the caller
// can render the right terminal message.
func (s *Session) Load(ctx context.Context) error {
	doc, err := s.svc.FetchDocument(ctx, s.token)
	if err != nil {
		if isBoundaryErr(err) {
			return err
		}
		return pkgerrors.Wrap(err, "fetching document")
	}
	if doc.Schema == nil {
		return pkgerrors.New("document carries no agreement schema")
	}

	s.doc = doc
	s.values = InitializeValues(doc.Schema, doc.FormData)
	s.values = RecomputeDerived(doc.Schema, s.values)
	return nil
}

func (s *Session) Document() *SigningDocument     { return s.doc }
func (s *Session) Values() FormValues             { return s.values }
func (s *Session) Step() Step                     { return s.step }
func (s *Session) FieldErrors() []core.FieldError { return s.fieldErrs }
func (s *Session) Summary() string                { return s.summary }
func (s *Session) SigningError() string           { return s.signingErr }

// Terminal reports whether the last failure ended the session for good
// (not found, already signed, rate limited) as opposed to a retryable one.
func (s *Session) Terminal() bool { return s.terminal }

// SetField writes one user edit and synchronously recomputes derived fields.
// Currency inputs are sanitized on every write; a payment selection change
// also clears the values of fields the new selection hides, atomically.
func (s *Session) SetField(path string, value string) {
	if path == PaymentSelectionField {
		s.values = ApplyPaymentSelection(s.values, value)
	} else {
		if fld, ok := s.doc.Schema.FieldByName(path); ok && fld.Kind == FieldCurrency {
			value = SanitizeCurrency(value)
		}
		s.values = SetValue(s.values, path, value)
	}
	s.values = RecomputeDerived(s.doc.Schema, s.values)
}

// SetAckInitials records initials for one acknowledgement, honoring the
// item's max length.
func (s *Session) SetAckInitials(ackID, initials string) {
	for _, ack := range s.doc.Schema.Acknowledgements() {
		if ack.ID == ackID && ack.MaxLen > 0 {
			if runes := []rune(initials); len(runes) > ack.MaxLen {
				initials = string(runes[:ack.MaxLen])
			}
		}
	}
	s.values = SetInitials(s.values, ackID, initials)
}

// Next advances Review -> Signing after a full validation pass. On failure the
// session stays on Review, errors and a summary referencing the first
// offending field's label are recorded, and a ValidationError is returned.
func (s *Session) Next() error {
	if s.step != StepReview {
		return nil
	}
	errs := ValidateValues(s.doc.Schema, s.values)
	if len(errs) > 0 {
		s.fieldErrs = errs
		s.summary = ValidationSummary(s.doc.Schema, errs)
		return core.NewValidationError(nil, errs...)
	}
	s.fieldErrs = nil
	s.summary = ""
	s.step = StepSigning
	return nil
}

// Back returns Signing -> Review, clearing signature-step errors. Field data
// was already validated to get here, so no re-validation runs.
func (s *Session) Back() {
	if s.step != StepSigning {
		return
	}
	s.signingErr = ""
	s.step = StepReview
}

// Submit collects the drawn signature and typed name and POSTs the signing
// payload exactly once. Both inputs are checked locally first; no network
// call is made while either is missing. Form values survive any failure so
// the signer can retry without re-entering the document.
func (s *Session) Submit(ctx context.Context, typedName string, signature Signature) error {
	if s.step != StepSigning {
		return pkgerrors.New("document must be reviewed before signing")
	}

	typedName = core.CleanString(typedName)
	if typedName == "" {
		s.signingErr = "Please type your full name."
		return core.NewValidationError(errors.New(s.signingErr))
	}
	if signature == nil || signature.IsEmpty() {
		s.signingErr = "Please provide your signature."
		return core.NewValidationError(errors.New(s.signingErr))
	}

	data, err := signature.EncodeImage()
	if err != nil {
		s.signingErr = "Your signature could not be processed. Please try again."
		return pkgerrors.Wrap(err, "encoding signature")
	}

	req := SignRequest{
		SignatureData: data,
		TypedName:     typedName,
		FormData:      s.values,
	}
	if err := s.svc.SubmitSignature(ctx, s.token, req); err != nil {
		s.signingErr, s.terminal = classifySubmitErr(err)
		return err
	}

	s.signingErr = ""
	s.step = StepSigned
	return nil
}

func isBoundaryErr(err error) bool {
	cause := pkgerrors.Cause(err)
	return cause == ErrDocumentNotFound || cause == ErrRateLimited || cause == ErrAlreadySigned
}

func classifySubmitErr(err error) (msg string, terminal bool) {
	switch pkgerrors.Cause(err) {
	case ErrAlreadySigned:
		return "This document has already been signed.", true
	case ErrDocumentNotFound:
		return "Document not found or link has expired.", true
	case ErrRateLimited:
		return "Too many requests. Please try again later.", true
	default:
		return "Your signature could not be submitted. Please try again.", false
	}
}
