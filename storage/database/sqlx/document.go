package sqlxrepos

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/dkamau/sahihi/core/agreement"
	"github.com/dkamau/sahihi/core/document"
)

type documentRepository struct {
	db *sqlx.DB
}

func NewDocumentRepository(db *sql.DB) document.Repository {
	return &documentRepository{db: sqlx.NewDb(db, "postgres")}
}

// documentRow mirrors the "document" table; form_data and agreement_schema
// are JSONB columns.
type documentRow struct {
	ID                  int       `db:"id"`
	Token               string    `db:"token"`
	TemplateName        string    `db:"template_name"`
	TemplateDescription string    `db:"template_description"`
	SignerName          string    `db:"signer_name"`
	SignerEmail         string    `db:"signer_email"`
	CourseType          string    `db:"course_type"`
	CourseLabel         string    `db:"course_label"`
	ExpiresAt           time.Time `db:"expires_at"`
	FormData            []byte    `db:"form_data"`
	AgreementSchema     []byte    `db:"agreement_schema"`
	SignatureData       string    `db:"signature_data"`
	TypedName           string    `db:"typed_name"`
	SignedAt            null.Time `db:"signed_at"`
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`
}

func newRow(doc document.Document) (documentRow, error) {
	formData, err := json.Marshal(doc.FormData)
	if err != nil {
		return documentRow{}, errors.Wrap(err, "encoding form data")
	}
	schema, err := json.Marshal(doc.Schema)
	if err != nil {
		return documentRow{}, errors.Wrap(err, "encoding agreement schema")
	}
	return documentRow{
		ID:                  doc.ID,
		Token:               doc.Token,
		TemplateName:        doc.TemplateName,
		TemplateDescription: doc.TemplateDescription,
		SignerName:          doc.SignerName,
		SignerEmail:         doc.SignerEmail,
		CourseType:          doc.CourseType,
		CourseLabel:         doc.CourseLabel,
		ExpiresAt:           doc.ExpiresAt,
		FormData:            formData,
		AgreementSchema:     schema,
		SignatureData:       doc.SignatureData,
		TypedName:           doc.TypedName,
		SignedAt:            doc.SignedAt,
		CreatedAt:           doc.CreatedAt,
		UpdatedAt:           doc.UpdatedAt,
	}, nil
}

func (row documentRow) document() (document.Document, error) {
	doc := document.Document{
		ID:                  row.ID,
		Token:               row.Token,
		TemplateName:        row.TemplateName,
		TemplateDescription: row.TemplateDescription,
		SignerName:          row.SignerName,
		SignerEmail:         row.SignerEmail,
		CourseType:          row.CourseType,
		CourseLabel:         row.CourseLabel,
		ExpiresAt:           row.ExpiresAt,
		SignatureData:       row.SignatureData,
		TypedName:           row.TypedName,
		SignedAt:            row.SignedAt,
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}
	if len(row.FormData) > 0 {
		if err := json.Unmarshal(row.FormData, &doc.FormData); err != nil {
			return document.Document{}, errors.Wrap(err, "decoding form data")
		}
	}
	if len(row.AgreementSchema) > 0 {
		doc.Schema = new(agreement.AgreementSchema)
		if err := json.Unmarshal(row.AgreementSchema, doc.Schema); err != nil {
			return document.Document{}, errors.Wrap(err, "decoding agreement schema")
		}
	}
	return doc, nil
}

func (repo *documentRepository) CreateDocument(doc document.Document) (document.Document, error) {
	row, err := newRow(doc)
	if err != nil {
		return document.Document{}, err
	}

	query := `
		INSERT INTO "document" (
			token, template_name, template_description, signer_name, signer_email,
			course_type, course_label, expires_at, form_data, agreement_schema,
			signature_data, typed_name, signed_at, created_at, updated_at
		) VALUES (
			:token, :template_name, :template_description, :signer_name, :signer_email,
			:course_type, :course_label, :expires_at, :form_data, :agreement_schema,
			:signature_data, :typed_name, :signed_at, :created_at, :updated_at
		) RETURNING id`
	rows, err := repo.db.NamedQuery(query, row)
	if err != nil {
		return document.Document{}, errors.Wrap(err, "inserting document")
	}
	defer func() { _ = rows.Close() }()

	if rows.Next() {
		if err = rows.Scan(&doc.ID); err != nil {
			return document.Document{}, errors.Wrap(err, "scanning document id")
		}
	}
	return doc, errors.Wrap(rows.Err(), "inserting document")
}

func (repo *documentRepository) GetDocumentByToken(token string) (document.Document, error) {
	var row documentRow
	err := repo.db.Get(&row, `SELECT * FROM "document" WHERE token = $1`, token)
	if err == sql.ErrNoRows {
		return document.Document{}, document.ErrNotFound
	}
	if err != nil {
		return document.Document{}, errors.Wrap(err, "getting document by token")
	}
	return row.document()
}

func (repo *documentRepository) QueryAllDocuments() ([]document.Document, error) {
	var rows []documentRow
	if err := repo.db.Select(&rows, `SELECT * FROM "document" ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "querying documents")
	}

	docs := make([]document.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := row.document()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (repo *documentRepository) UpdateDocument(doc document.Document) (document.Document, error) {
	row, err := newRow(doc)
	if err != nil {
		return document.Document{}, err
	}

	query := `
		UPDATE "document" SET
			form_data = :form_data,
			signature_data = :signature_data,
			typed_name = :typed_name,
			signed_at = :signed_at,
			updated_at = :updated_at
		WHERE id = :id AND signed_at IS NULL`
	res, err := repo.db.NamedExec(query, row)
	if err != nil {
		return document.Document{}, errors.Wrap(err, "updating document")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// either gone or a concurrent submission won the race
		return document.Document{}, document.ErrAlreadySigned
	}
	return doc, nil
}
