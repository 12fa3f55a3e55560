package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jrsteele09/go-payment-broker/assertion"
	"github.com/rs/zerolog/log"
)

// Client wraps outbound calls to the open-banking API. Every call bears a
// freshly minted identity assertion as a bearer credential. The client
// performs no retries; retry policy belongs to the caller, and only for
// operations it knows to be idempotent.
type Client struct {
	baseURL    string
	httpClient *http.Client
	minter     assertion.Minter
}

// New creates a client for the given API base URL. The timeout bounds every
// outbound request so a stalled upstream cannot block a handler indefinitely.
func New(baseURL string, timeout time.Duration, minter assertion.Minter) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		minter:     minter,
	}
}

// Call issues a single authenticated request and returns the raw response
// body on any 2xx status. Callers decode the JSON they expect; a success
// response that is not well-formed JSON still passes through untouched.
// Failures are typed: signing faults propagate as *assertion.SigningError,
// API rejections as *Error with status and body preserved, and transport
// failures as *NetworkError.
func (c *Client) Call(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	token, err := c.minter.Mint()
	if err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("[Client Call] failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("[Client Call] failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		log.Warn().
			Int("status", resp.StatusCode).
			Str("method", method).
			Str("path", path).
			Msg("upstream API rejected call")
		return nil, &Error{StatusCode: resp.StatusCode, Body: string(data)}
	}

	return json.RawMessage(data), nil
}
