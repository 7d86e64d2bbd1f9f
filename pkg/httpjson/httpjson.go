// Package httpjson executes JSON API requests for the provider clients and
// reports non-2xx responses as typed status errors.
package httpjson

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// maxErrorBody caps how much of an error response is kept in StatusError.
const maxErrorBody = 512

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Service, e.Code, e.Body)
}

// Transient reports whether the status is worth retrying.
func (e *StatusError) Transient() bool {
	switch e.Code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// NewHTTPClient returns the pooled client shared by provider packages.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// Request describes one JSON API call.
type Request struct {
	Service string
	Method  string
	URL     string
	Header  http.Header
	Body    any
}

// Do sends req and returns the raw response body. A 2xx status is required.
func Do(ctx context.Context, hc *http.Client, req Request) ([]byte, error) {
	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, eris.Wrapf(err, "%s: marshal request", req.Service)
		}
		body = bytes.NewReader(b)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: create request", req.Service)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}

	resp, err := hc.Do(httpReq)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: send request", req.Service)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: read response", req.Service)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(respBody)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &StatusError{Service: req.Service, Code: resp.StatusCode, Body: snippet}
	}
	return respBody, nil
}

// DoJSON sends req and decodes the response into out.
func DoJSON(ctx context.Context, hc *http.Client, req Request, out any) error {
	body, err := Do(ctx, hc, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "%s: unmarshal response", req.Service)
	}
	return nil
}

// StatusCode extracts the HTTP status from an error chain, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
