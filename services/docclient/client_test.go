package docclientsvc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkamau/sahihi/core/agreement"
)

func newStubServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientFetchDocument(t *testing.T) {
	t.Run("decodes the signing document", func(t *testing.T) {
		srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/v1/sign/tok-123", r.URL.Path)

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"template_name": "Enrollment Agreement",
				"signer_name":   "Asha Mwangi",
				"form_data":     map[string]interface{}{"signer": map[string]interface{}{"name": "Asha Mwangi"}},
				"agreement_schema": map[string]interface{}{
					"id":    "enrollment-basic",
					"title": "Enrollment Agreement",
					"sections": []map[string]interface{}{
						{
							"id":    "terms",
							"title": "Terms",
							"elements": []map[string]interface{}{
								{"kind": "text", "style": "body", "content": "Welcome"},
							},
						},
					},
				},
			})
		})

		doc, err := NewClient(srv.URL).FetchDocument(context.Background(), "tok-123")
		require.NoError(t, err)

		assert.Equal(t, "Enrollment Agreement", doc.TemplateName)
		assert.Equal(t, "Asha Mwangi", agreement.GetString(doc.FormData, "signer.name"))
		require.NotNil(t, doc.Schema)
		require.Len(t, doc.Schema.Sections, 1)
		assert.Equal(t, agreement.ElementText, doc.Schema.Sections[0].Elements[0].Kind)
	})

	t.Run("schema with unknown element kinds fails closed", func(t *testing.T) {
		srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"agreement_schema": {"id": "x", "title": "X", "sections": [
				{"id": "s", "title": "S", "elements": [{"kind": "carousel"}]}]}}`))
		})

		_, err := NewClient(srv.URL).FetchDocument(context.Background(), "tok")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown element kind")
	})

	t.Run("404 is not found", func(t *testing.T) {
		srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error": "document not found or link has expired"}`, http.StatusNotFound)
		})

		_, err := NewClient(srv.URL).FetchDocument(context.Background(), "tok")
		assert.Equal(t, agreement.ErrDocumentNotFound, err)
	})

	t.Run("429 is rate limited", func(t *testing.T) {
		srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error": "too many requests"}`, http.StatusTooManyRequests)
		})

		_, err := NewClient(srv.URL).FetchDocument(context.Background(), "tok")
		assert.Equal(t, agreement.ErrRateLimited, err)
	})
}

func TestClientSubmitSignature(t *testing.T) {
	signReq := agreement.SignRequest{
		SignatureData: "aW1hZ2U=",
		TypedName:     "Asha Mwangi",
		FormData:      agreement.FormValues{"signer": map[string]interface{}{"name": "Asha Mwangi"}},
	}

	t.Run("posts the signing payload", func(t *testing.T) {
		var received agreement.SignRequest
		srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1/sign/tok-123", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

			_, _ = w.Write([]byte(`{"success": true}`))
		})

		err := NewClient(srv.URL).SubmitSignature(context.Background(), "tok-123", signReq)
		require.NoError(t, err)
		assert.Equal(t, signReq.TypedName, received.TypedName)
		assert.Equal(t, signReq.SignatureData, received.SignatureData)
	})

	t.Run("400 carrying the marker is already signed", func(t *testing.T) {
		srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error": "This document has already been signed"}`, http.StatusBadRequest)
		})

		err := NewClient(srv.URL).SubmitSignature(context.Background(), "tok", signReq)
		assert.Equal(t, agreement.ErrAlreadySigned, err)
	})

	t.Run("other 400s stay generic", func(t *testing.T) {
		srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error": "validation failed"}`, http.StatusBadRequest)
		})

		err := NewClient(srv.URL).SubmitSignature(context.Background(), "tok", signReq)
		require.Error(t, err)
		assert.NotEqual(t, agreement.ErrAlreadySigned, err)
		assert.Contains(t, err.Error(), "400")
	})

	t.Run("5xx stays generic and retryable", func(t *testing.T) {
		srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})

		err := NewClient(srv.URL).SubmitSignature(context.Background(), "tok", signReq)
		require.Error(t, err)
		for _, sentinel := range []error{agreement.ErrDocumentNotFound, agreement.ErrRateLimited, agreement.ErrAlreadySigned} {
			assert.NotEqual(t, sentinel, err)
		}
		assert.True(t, strings.Contains(err.Error(), "500"))
	})
}

func TestNewClient(t *testing.T) {
	c := NewClient("http://svc.local/")
	assert.Equal(t, "http://svc.local/v1/sign/tok", c.signURL("tok"))
}
