package document_test

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/dkamau/sahihi/core"
	"github.com/dkamau/sahihi/core/agreement"
	"github.com/dkamau/sahihi/core/document"
	emailsvc "github.com/dkamau/sahihi/services/email"
	dummydb "github.com/dkamau/sahihi/storage/database/dummy"
)

func newTestService(t *testing.T) (*document.Service, document.Repository) {
	t.Helper()

	db, err := dummydb.Open()
	require.NoError(t, err)
	repo := dummydb.NewDocumentRepository(db)

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)

	return document.NewService(repo, emailsvc.NewConsoleServiceMock(), validate), repo
}

func testAgreementSchema() *agreement.AgreementSchema {
	return &agreement.AgreementSchema{
		ID:      "enrollment-basic",
		Version: "1",
		Title:   "Enrollment Agreement",
		Sections: []agreement.Section{
			{
				ID:    "signer",
				Title: "Signer",
				Elements: []agreement.Element{
					{
						Kind: agreement.ElementFieldGroup,
						FieldGroup: &agreement.FieldGroup{
							Fields: []agreement.FieldDefinition{
								{Name: "signer.name", Label: "Full Name", Kind: agreement.FieldText, Required: true},
							},
						},
					},
					{
						Kind: agreement.ElementAcknowledgementList,
						Acknowledgements: &agreement.AcknowledgementList{
							Items: []agreement.Acknowledgement{
								{ID: "terms", Label: "I accept the terms.", Required: true, MaxLen: 4},
							},
						},
					},
				},
			},
		},
	}
}

func newTestDocument() document.NewDocument {
	return document.NewDocument{
		TemplateName: "Enrollment Agreement",
		SignerName:   "Asha Mwangi",
		SignerEmail:  "Asha@Test.Test",
		CourseType:   "full_time",
		CourseLabel:  "Full-Time Program",
		FormData:     agreement.FormValues{},
		Schema:       testAgreementSchema(),
	}
}

func signedValues() agreement.FormValues {
	values := agreement.FormValues{}
	values = agreement.SetValue(values, "signer.name", "Asha Mwangi")
	values = agreement.SetInitials(values, "terms", "AM")
	return values
}

func validSignRequest() agreement.SignRequest {
	png := append([]byte("\x89PNG\r\n\x1a\n"), []byte("stroke-data")...)
	return agreement.SignRequest{
		SignatureData: base64.StdEncoding.EncodeToString(png),
		TypedName:     "Asha Mwangi",
		FormData:      signedValues(),
	}
}

func TestServiceCreateSigningRequest(t *testing.T) {
	svc, _ := newTestService(t)

	t.Run("mints token and expiry", func(t *testing.T) {
		doc, err := svc.CreateSigningRequest(newTestDocument())
		require.NoError(t, err)

		assert.NotZero(t, doc.ID)
		assert.NotEmpty(t, doc.Token)
		assert.Equal(t, "asha@test.test", doc.SignerEmail) // cleaned and lowered
		assert.WithinDuration(t, time.Now().UTC().Add(core.Conf.SigningExpirationDelta), doc.ExpiresAt, time.Minute)
		assert.Contains(t, svc.SigningLink(doc), "/sign/"+doc.Token)
	})

	t.Run("tokens are unique per request", func(t *testing.T) {
		doc1, err := svc.CreateSigningRequest(newTestDocument())
		require.NoError(t, err)
		doc2, err := svc.CreateSigningRequest(newTestDocument())
		require.NoError(t, err)
		assert.NotEqual(t, doc1.Token, doc2.Token)
	})

	t.Run("rejects invalid payloads", func(t *testing.T) {
		nd := newTestDocument()
		nd.SignerEmail = "not-an-email"
		_, err := svc.CreateSigningRequest(nd)
		assert.Error(t, err)

		nd = newTestDocument()
		nd.Schema = nil
		_, err = svc.CreateSigningRequest(nd)
		assert.Error(t, err)
	})

	t.Run("rejects schemas with duplicate field names", func(t *testing.T) {
		nd := newTestDocument()
		grp := nd.Schema.Sections[0].Elements[0].FieldGroup
		grp.Fields = append(grp.Fields, grp.Fields[0])
		_, err := svc.CreateSigningRequest(nd)
		assert.Error(t, err)
	})
}

func TestServiceGetByToken(t *testing.T) {
	svc, repo := newTestService(t)

	doc, err := svc.CreateSigningRequest(newTestDocument())
	require.NoError(t, err)

	t.Run("resolves an open document", func(t *testing.T) {
		got, err := svc.GetByToken(doc.Token)
		require.NoError(t, err)
		assert.Equal(t, doc.ID, got.ID)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := svc.GetByToken("nope")
		assert.Equal(t, document.ErrNotFound, err)
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := svc.CreateSigningRequest(newTestDocument())
		require.NoError(t, err)
		expired.ExpiresAt = time.Now().UTC().Add(-time.Hour)
		_, err = repo.UpdateDocument(expired)
		require.NoError(t, err)

		_, err = svc.GetByToken(expired.Token)
		assert.Equal(t, document.ErrExpired, err)
	})

	t.Run("signed token", func(t *testing.T) {
		signed, err := svc.CreateSigningRequest(newTestDocument())
		require.NoError(t, err)
		signed.SignedAt = null.TimeFrom(time.Now().UTC())
		_, err = repo.UpdateDocument(signed)
		require.NoError(t, err)

		_, err = svc.GetByToken(signed.Token)
		assert.Equal(t, document.ErrAlreadySigned, err)
	})
}

func TestServiceSign(t *testing.T) {
	svc, _ := newTestService(t)

	t.Run("signs an open document", func(t *testing.T) {
		doc, err := svc.CreateSigningRequest(newTestDocument())
		require.NoError(t, err)

		signed, err := svc.Sign(doc.Token, validSignRequest())
		require.NoError(t, err)

		assert.True(t, signed.Signed())
		assert.Equal(t, "Asha Mwangi", signed.TypedName)
		assert.Equal(t, "Asha Mwangi", agreement.GetString(signed.FormData, "signer.name"))
	})

	t.Run("second submission fails no matter what the client believes", func(t *testing.T) {
		doc, err := svc.CreateSigningRequest(newTestDocument())
		require.NoError(t, err)

		_, err = svc.Sign(doc.Token, validSignRequest())
		require.NoError(t, err)

		_, err = svc.Sign(doc.Token, validSignRequest())
		assert.Equal(t, document.ErrAlreadySigned, err)
	})

	t.Run("re-validates form values server-side", func(t *testing.T) {
		doc, err := svc.CreateSigningRequest(newTestDocument())
		require.NoError(t, err)

		req := validSignRequest()
		// name blank, initials missing
		req.FormData = agreement.FormValues{"signer": map[string]interface{}{"name": "   "}}
		_, err = svc.Sign(doc.Token, req)

		vErr, ok := err.(*core.ValidationError)
		require.True(t, ok, err)
		assert.Len(t, vErr.Fields, 2)
	})

	t.Run("rejects malformed signature data", func(t *testing.T) {
		doc, err := svc.CreateSigningRequest(newTestDocument())
		require.NoError(t, err)

		for name, data := range map[string]string{
			"not base64": "%%%not-base64%%%",
			"not a png":  base64.StdEncoding.EncodeToString([]byte("GIF89a...")),
		} {
			req := validSignRequest()
			req.SignatureData = data
			_, err := svc.Sign(doc.Token, req)
			assert.Error(t, err, name)
			if vErr, ok := err.(*core.ValidationError); assert.True(t, ok, name) {
				assert.Equal(t, "signature_data", vErr.Fields[0].Field, name)
			}
		}
	})

	t.Run("rejects empty submission fields", func(t *testing.T) {
		doc, err := svc.CreateSigningRequest(newTestDocument())
		require.NoError(t, err)

		req := validSignRequest()
		req.TypedName = ""
		_, err = svc.Sign(doc.Token, req)
		assert.Error(t, err)
	})

	t.Run("sends a confirmation email", func(t *testing.T) {
		doc, err := svc.CreateSigningRequest(newTestDocument())
		require.NoError(t, err)

		before := len(emailsvc.SentMessages)
		_, err = svc.Sign(doc.Token, validSignRequest())
		require.NoError(t, err)

		require.Greater(t, len(emailsvc.SentMessages), before)
		last := emailsvc.SentMessages[len(emailsvc.SentMessages)-1]
		assert.Contains(t, last.Subject, "Signed copy")
		assert.True(t, strings.Contains(last.TextContent, "Asha Mwangi"))
	})
}

func TestServiceQueryAll(t *testing.T) {
	svc, _ := newTestService(t)

	for i := 0; i < 3; i++ {
		_, err := svc.CreateSigningRequest(newTestDocument())
		require.NoError(t, err)
	}

	docs, err := svc.QueryAll()
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}
