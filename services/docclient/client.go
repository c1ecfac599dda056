// Package docclientsvc is the HTTP client of the document service's public
// signing API. It implements agreement.DocumentService and translates
// transport failures into the engine's classified boundary errors.
package docclientsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/dkamau/sahihi/core/agreement"
)

// alreadySignedMarker is the detail substring distinguishing an
// already-signed 400 from a generic submission failure.
const alreadySignedMarker = "already been signed"

type Client struct {
	baseURL string
	http    *http.Client
}

var _ agreement.DocumentService = (*Client)(nil)

func NewClient(baseURL string, httpClient ...*http.Client) *Client {
	hc := &http.Client{Timeout: 30 * time.Second}
	if len(httpClient) > 0 && httpClient[0] != nil {
		hc = httpClient[0]
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}
}

// FetchDocument resolves GET /sign/{token}.
func (c *Client) FetchDocument(ctx context.Context, token string) (*agreement.SigningDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.signURL(token), nil)
	if err != nil {
		return nil, errors.Wrap(err, "building fetch request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetching document")
	}
	defer resp.Body.Close()

	if err := c.classify(resp); err != nil {
		return nil, err
	}

	var doc agreement.SigningDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "decoding document")
	}
	return &doc, nil
}

// SubmitSignature resolves POST /sign/{token}.
func (c *Client) SubmitSignature(ctx context.Context, token string, sign agreement.SignRequest) error {
	body, err := json.Marshal(sign)
	if err != nil {
		return errors.Wrap(err, "encoding sign request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.signURL(token), bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "building sign request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "submitting signature")
	}
	defer resp.Body.Close()

	if err := c.classify(resp); err != nil {
		return err
	}
	io.Copy(ioutil.Discard, resp.Body) // nolint:errcheck
	return nil
}

func (c *Client) signURL(token string) string {
	return fmt.Sprintf("%s/v1/sign/%s", c.baseURL, token)
}

// classify maps a non-2xx response onto the engine's error taxonomy:
// 404 -> not found, 429 -> rate limited, 400 carrying the already-signed
// marker -> already signed; everything else is a generic failure the caller
// may retry.
func (c *Client) classify(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := ioutil.ReadAll(resp.Body)
	switch resp.StatusCode {
	case http.StatusNotFound:
		return agreement.ErrDocumentNotFound
	case http.StatusTooManyRequests:
		return agreement.ErrRateLimited
	case http.StatusBadRequest:
		if strings.Contains(strings.ToLower(string(body)), alreadySignedMarker) {
			return agreement.ErrAlreadySigned
		}
	}
	return errors.Errorf("document service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
