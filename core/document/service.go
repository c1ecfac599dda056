package document

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/dkamau/sahihi/core"
	"github.com/dkamau/sahihi/core/agreement"
)

var (
	// errors
	ErrNotFound      = errors.New("document not found")
	ErrExpired       = errors.New("signing link has expired")
	ErrAlreadySigned = errors.New("document has already been signed")

	errBadSignature = errors.New("malformed signature data")

	pngMagic = []byte("\x89PNG\r\n\x1a\n")
)

type (
	Repository interface {
		CreateDocument(doc Document) (Document, error)
		GetDocumentByToken(token string) (Document, error)
		QueryAllDocuments() ([]Document, error)
		// UpdateDocument persists the signature fields of an existing document.
		UpdateDocument(doc Document) (Document, error)
	}

	Service struct {
		repo     Repository
		mailSvc  core.EmailService
		validate *validator.Validate
	}
)

func NewService(repo Repository, mailSvc core.EmailService, validate *validator.Validate) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, validate: validate}
}

// CreateSigningRequest validates and stores a new document, mints its opaque
// token and emails the signer a public signing link.
func (svc *Service) CreateSigningRequest(nd NewDocument) (Document, error) {
	if err := nd.Validate(svc.validate); err != nil {
		return Document{}, err
	}

	now := time.Now().UTC()
	doc := Document{
		Token:               uuid.New().String(),
		TemplateName:        nd.TemplateName,
		TemplateDescription: nd.TemplateDescription,
		SignerName:          nd.SignerName,
		SignerEmail:         nd.SignerEmail,
		CourseType:          nd.CourseType,
		CourseLabel:         nd.CourseLabel,
		ExpiresAt:           now.Add(core.Conf.SigningExpirationDelta),
		FormData:            nd.FormData,
		Schema:              nd.Schema,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	doc, err := svc.repo.CreateDocument(doc)
	if err != nil {
		return Document{}, err
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: doc.SignerName, Address: doc.SignerEmail}},
		Subject:      fmt.Sprintf("Your %s is ready to sign", doc.TemplateName),
		TemplateName: "signing-request",
		TemplateData: struct {
			Doc  Document
			Link string
		}{doc, svc.SigningLink(doc)},
	})
	return doc, nil
}

// GetByToken resolves the signing session behind a token. A missing or
// expired token is ErrNotFound territory for the public API; a signed one is
// terminal with its own distinct error.
func (svc *Service) GetByToken(token string) (Document, error) {
	doc, err := svc.repo.GetDocumentByToken(token)
	if err != nil {
		return Document{}, err
	}
	if doc.Expired(time.Now().UTC()) {
		return Document{}, ErrExpired
	}
	if doc.Signed() {
		return Document{}, ErrAlreadySigned
	}
	return doc, nil
}

// Sign applies a signature submission to the unsigned document behind the
// token. The store is the sole source of truth for idempotency: a second
// submission against the same token fails with ErrAlreadySigned no matter
// what the submitting client believes.
func (svc *Service) Sign(token string, req agreement.SignRequest) (Document, error) {
	doc, err := svc.repo.GetDocumentByToken(token)
	if err != nil {
		return Document{}, err
	}
	if doc.Expired(time.Now().UTC()) {
		return Document{}, ErrExpired
	}
	if doc.Signed() {
		return Document{}, ErrAlreadySigned
	}

	if err := svc.validateSubmission(doc, &req); err != nil {
		return Document{}, err
	}

	now := time.Now().UTC()
	doc.SignatureData = req.SignatureData
	doc.TypedName = core.CleanString(req.TypedName)
	doc.FormData = req.FormData
	doc.SignedAt = null.TimeFrom(now)
	doc.UpdatedAt = now

	doc, err = svc.repo.UpdateDocument(doc)
	if err != nil {
		return Document{}, err
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: doc.SignerName, Address: doc.SignerEmail}},
		Subject: fmt.Sprintf("Signed copy of your %s", doc.TemplateName),
		BodyStr: fmt.Sprintf(
			"Hi %s,\r\n\r\nYour %s was signed on %s. Keep this email for your records.\r\n",
			doc.SignerName, doc.TemplateName, now.Format("Jan 2, 2006"),
		),
	})
	return doc, nil
}

// QueryAll returns every signing request; used by the admin CLI.
func (svc *Service) QueryAll() ([]Document, error) {
	return svc.repo.QueryAllDocuments()
}

// SigningLink is the public URL the signer opens.
func (svc *Service) SigningLink(doc Document) string {
	return fmt.Sprintf("%s/sign/%s", core.Conf.FrontendBaseURL, doc.Token)
}

// validateSubmission re-runs the engine's validation server-side: a client
// cannot be trusted to have enforced required fields, acknowledgements or a
// well-formed signature image.
func (svc *Service) validateSubmission(doc Document, req *agreement.SignRequest) error {
	if err := svc.validate.Struct(req); err != nil {
		return err
	}

	if fldErrs := agreement.ValidateValues(doc.Schema, req.FormData); len(fldErrs) > 0 {
		return core.NewValidationError(nil, fldErrs...)
	}

	raw, err := base64.StdEncoding.DecodeString(req.SignatureData)
	if err != nil || !bytes.HasPrefix(raw, pngMagic) {
		return core.NewValidationError(errBadSignature,
			core.FieldError{Field: "signature_data", Error: errBadSignature.Error()})
	}
	return nil
}
