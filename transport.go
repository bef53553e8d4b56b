package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/cenkalti/backoff/v5"
)

// AuthMethod selects how the API key is sent. The standard API uses an
// x-api-key header; gateways commonly expect a Bearer token or a bare
// token header instead.
type AuthMethod string

const (
	AuthAnthropic AuthMethod = "anthropic"
	AuthBearer    AuthMethod = "bearer"
	AuthToken     AuthMethod = "token"
)

func (c *Client) authorize(req *http.Request) {
	switch c.authMethod {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	case AuthToken:
		req.Header.Set("token", c.apiKey)
	default:
		req.Header.Set("x-api-key", c.apiKey)
	}
	req.Header.Set("anthropic-version", c.version)
	if len(c.betas) > 0 {
		req.Header.Set("anthropic-beta", strings.Join(c.betas, ","))
	}
}

// request sends one API request, retrying connection failures and
// retryable statuses (408, 429, 5xx) with exponential backoff and jitter.
// Retry happens at the whole-request level only; a response body, once
// returned, is never retried.
func (c *Client) request(ctx context.Context, method, path, contentType, accept string, body []byte) (*http.Response, error) {
	op := func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, backoff.Permanent(&ConfigError{Reason: err.Error()})
		}
		c.authorize(req)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		req.Header.Set("Accept", accept)

		res, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(&ConnectionError{Cause: err})
			}
			c.log.Debug("request failed, retrying", "method", method, "path", path, "error", err)
			return nil, &ConnectionError{Cause: err}
		}
		if res.StatusCode >= 200 && res.StatusCode < 300 {
			return res, nil
		}
		apiErr := parseAPIError(res)
		if retryable(res.StatusCode) {
			c.log.Debug("retryable status", "method", method, "path", path, "status", res.StatusCode)
			return nil, apiErr
		}
		return nil, backoff.Permanent(apiErr)
	}
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(uint(c.maxRetries)+1),
	)
}

// do sends a JSON request and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		b, err := encode(in)
		if err != nil {
			return err
		}
		body = b
	}
	res, err := c.request(ctx, method, path, "application/json", "application/json", body)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if out == nil {
		io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := decodeBody(res, out); err != nil {
		return err
	}
	if message, ok := out.(*Message); ok {
		message.requestID = res.Header.Get("request-id")
	}
	return nil
}

func decodeBody(res *http.Response, out any) error {
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &DecodeError{Reason: "invalid response body", Cause: err}
	}
	return nil
}

func encode(in any) ([]byte, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, &ConfigError{Reason: "encoding request: " + err.Error()}
	}
	return body, nil
}

func retryable(status int) bool {
	return status == http.StatusRequestTimeout ||
		status == http.StatusTooManyRequests ||
		status >= 500
}

// parseAPIError decodes the wire error shape
// {"type":"error","error":{"type":...,"message":...}}, falling back to
// the raw body when the shape doesn't match.
func parseAPIError(res *http.Response) *APIError {
	defer res.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	apiErr := &APIError{
		StatusCode: res.StatusCode,
		Type:       "api_error",
		Message:    strings.TrimSpace(string(body)),
		RequestID:  res.Header.Get("request-id"),
	}
	var raw struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &raw); err == nil && raw.Error.Type != "" {
		apiErr.Type = raw.Error.Type
		apiErr.Message = raw.Error.Message
	}
	return apiErr
}
