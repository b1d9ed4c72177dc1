package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// StatusError is returned for non-2xx responses that survive the client's
// built-in retries.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// Client issues authenticated GET requests against a DOT API and decodes the
// JSON tolerantly. Two upstream quirks are handled transparently:
//
//   - 401/403 on a request that carried an Authorization header triggers one
//     retry with the configured key moved into the api-key query parameter
//     (some OHGO deployments only accept one of the two). Requests that never
//     sent header auth, such as feeds that authenticate by their own query
//     parameter, are not retried and never see the client's key.
//   - 404 on a URL containing a duplicated /incidents/incidents segment
//     triggers one retry with the duplication collapsed.
type Client struct {
	httpClient *http.Client
	apiKey     string
	logger     *slog.Logger
}

// NewClient creates a feed client. An empty apiKey disables the auth
// fallback retry.
func NewClient(apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
		logger:     logger,
	}
}

// GetJSON fetches rawURL with the given query parameters and headers and
// returns the decoded body. Decode failures are absorbed: on success status
// with an undecodable body the result is an empty list, never an error.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, headers http.Header) (any, error) {
	resp, err := c.do(ctx, rawURL, params, headers)
	if err != nil {
		return nil, err
	}

	if (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) &&
		c.apiKey != "" && headers.Get("Authorization") != "" {
		drain(resp)
		qp := clone(params)
		qp.Set("api-key", c.apiKey)
		c.logger.Warn("auth rejected, retrying with query-parameter key", "status", resp.StatusCode, "url", rawURL)
		resp, err = c.do(ctx, rawURL, qp, nil)
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode == http.StatusNotFound && strings.Contains(resp.Request.URL.Path, "/incidents/incidents") {
		drain(resp)
		rebound := strings.Replace(rawURL, "/incidents/incidents", "/incidents", 1)
		c.logger.Warn("duplicated path segment, retrying collapsed", "url", rawURL, "rebound", rebound)
		resp, err = c.do(ctx, rebound, params, headers)
		if err != nil {
			return nil, err
		}
	}

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, URL: resp.Request.URL.String()}
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		// Some deployments mislabel content or double-encode; try the body
		// trimmed, then give up with an empty list rather than an error.
		if err2 := json.Unmarshal([]byte(strings.TrimSpace(string(body))), &decoded); err2 != nil {
			c.logger.Warn("undecodable response body, returning empty list", "url", rawURL, "error", err)
			return []any{}, nil
		}
	}
	return decoded, nil
}

func (c *Client) do(ctx context.Context, rawURL string, params url.Values, headers http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if len(params) > 0 {
		q := req.URL.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Set(k, v)
			}
		}
		req.URL.RawQuery = q.Encode()
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request: %w", err)
	}
	return resp, nil
}

func clone(params url.Values) url.Values {
	out := url.Values{}
	for k, vs := range params {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body) //nolint:errcheck // discarding before close
	resp.Body.Close()
}
