package gphotos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Session issues requests against the Photos Library API using an
// authenticated HTTP client. Headers are always set per request; the
// session itself carries no mutable header state, so upload-specific
// headers cannot leak into unrelated calls.
type Session struct {
	httpClient *http.Client
	baseURL    string
}

// NewSession wraps an authenticated client. baseURL is the REST root,
// eg https://photoslibrary.googleapis.com/v1.
func NewSession(httpClient *http.Client, baseURL string) *Session {
	return &Session{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Get performs a GET of baseURL+path with the given query parameters.
func (s *Session) Get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	u := s.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return s.httpClient.Do(req)
}

// PostJSON performs a POST of baseURL+path with a JSON-encoded body.
func (s *Session) PostJSON(ctx context.Context, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return s.httpClient.Do(req)
}

// checkResponse maps a non-2xx response to an APIError, retaining a
// bounded amount of the body for diagnostics.
func checkResponse(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &APIError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
