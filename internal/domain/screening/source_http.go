package screening

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// FetchError is returned by HTTPSource when the screenings API answers with a
// non-2xx status. Error() is the API's own message, which may be empty.
type FetchError struct {
	StatusCode int
	Message    string
}

func (e *FetchError) Error() string { return e.Message }

// HTTPSourceOption configures an HTTPSource.
type HTTPSourceOption func(*HTTPSource)

// WithHTTPClient overrides the default client (10s timeout).
func WithHTTPClient(c *http.Client) HTTPSourceOption {
	return func(s *HTTPSource) { s.client = c }
}

// WithBearerToken sends the token in the Authorization header.
func WithBearerToken(token string) HTTPSourceOption {
	return func(s *HTTPSource) { s.token = token }
}

// HTTPSource reads screenings from the questionnaire backend's REST API:
// GET {baseURL}/screenings?limit=N.
type HTTPSource struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPSource(baseURL string, opts ...HTTPSourceOption) *HTTPSource {
	s := &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *HTTPSource) GetScreenings(ctx context.Context, limit int) ([]*Screening, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/screenings?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build screenings request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read screenings response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &apiErr)
		return nil, &FetchError{StatusCode: resp.StatusCode, Message: apiErr.Message}
	}

	return decodeScreenings(body)
}

// decodeScreenings accepts either a bare JSON array or a paginated envelope
// of the form {"data": [...]}.
func decodeScreenings(body []byte) ([]*Screening, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var items []*Screening
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode screenings: %w", err)
		}
		return items, nil
	}
	var envelope struct {
		Data []*Screening `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("decode screenings: %w", err)
	}
	return envelope.Data, nil
}
