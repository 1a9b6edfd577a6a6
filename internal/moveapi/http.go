package moveapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kendrickhart/moveboard/internal/move"
)

const defaultTimeout = 10 * time.Second

// HTTPClient is the REST/JSON binding of the contract.
type HTTPClient struct {
	base string
	http *http.Client
}

// HTTPOption customizes an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPDoer swaps the underlying http.Client, primarily for tests.
func WithHTTPDoer(c *http.Client) HTTPOption {
	return func(h *HTTPClient) {
		if c != nil {
			h.http = c
		}
	}
}

// NewHTTP creates a client rooted at baseURL.
func NewHTTP(baseURL string, opts ...HTTPOption) (*HTTPClient, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("moveapi: base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("moveapi: parse base URL: %w", err)
	}
	h := &HTTPClient{base: base, http: &http.Client{Timeout: defaultTimeout}}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

func (h *HTTPClient) ListMoves(ctx context.Context, f Filter) ([]move.Move, error) {
	path := "/moves"
	if f.Lane != "" {
		path += "?lane=" + url.QueryEscape(string(f.Lane))
	}
	var out []move.Move
	if err := h.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *HTTPClient) PatchMove(ctx context.Context, id int64, p Patch) (move.Move, error) {
	var out move.Move
	err := h.do(ctx, http.MethodPatch, fmt.Sprintf("/moves/%d", id), p, &out)
	return out, err
}

func (h *HTTPClient) CompleteMove(ctx context.Context, id int64) error {
	return h.do(ctx, http.MethodPost, fmt.Sprintf("/moves/%d/complete", id), nil, nil)
}

func (h *HTTPClient) CreateMove(ctx context.Context, d Draft) (move.Move, error) {
	var out move.Move
	err := h.do(ctx, http.MethodPost, "/moves", d, &out)
	return out, err
}

func (h *HTTPClient) RunTriage(ctx context.Context) (TriageRun, error) {
	var out TriageRun
	if err := h.do(ctx, http.MethodPost, "/triage", nil, &out); err != nil {
		// A failed triage run has one shape for the caller regardless of
		// whether the wire or the service broke: no partial state.
		return TriageRun{}, fmt.Errorf("%w: %v", ErrTriageUnavailable, err)
	}
	return out, nil
}

// do issues one request and maps the response onto the error taxonomy:
// 404 -> ErrNotFound, 422/400 -> *ValidationError, transport failures ->
// *TransportError, anything else -> a plain error with the status.
func (h *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("moveapi: encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, h.base+path, reader)
	if err != nil {
		return fmt.Errorf("moveapi: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.http.Do(req)
	if err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		var verr ValidationError
		if derr := json.NewDecoder(resp.Body).Decode(&verr); derr != nil || verr.Field == "" {
			return &ValidationError{Field: "request", Reason: resp.Status}
		}
		return &verr
	case resp.StatusCode >= 300:
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("moveapi: %s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(payload)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("moveapi: decode response: %w", err)
	}
	return nil
}
