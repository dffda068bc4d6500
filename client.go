package coordinate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// NodeClient performs one action against one node.  It makes a single call
// with no retries of its own and classifies the result as success, a
// transient failure, or a permanent failure (see TransientFailure and
// PermanentFailure).  The coordinator trusts this classification and never
// inspects transport-level detail itself.
type NodeClient interface {
	Call(ctx context.Context, action ActionSpec) ([]byte, error)
}

// HTTPNodeClient is the NodeClient for a node exposing the plain stateless
// HTTP endpoints the replicas speak: create is a POST to the resource
// collection, delete is a DELETE with the same JSON body.
//
// Status mapping:
//   - 2xx: success
//   - connection error, timeout, 5xx: transient failure
//   - 400 on create, 404 on delete: permanent failure carrying
//     ErrAlreadyApplied (the node already holds the desired end state)
//   - any other 4xx: permanent failure
type HTTPNodeClient struct {
	base   string
	client *http.Client
}

// NewHTTPNodeClient creates a client for one node.  The timeout bounds each
// individual call; zero falls back to DefaultNodeTimeout.
func NewHTTPNodeClient(base string, timeout time.Duration) *HTTPNodeClient {
	if timeout <= 0 {
		timeout = DefaultNodeTimeout
	}
	return &HTTPNodeClient{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

// Call implements NodeClient.
func (c *HTTPNodeClient) Call(ctx context.Context, action ActionSpec) ([]byte, error) {
	var method string
	switch action.Verb {
	case VerbCreate:
		method = http.MethodPost
	case VerbDelete:
		method = http.MethodDelete
	default:
		return nil, PermanentFailure(fmt.Errorf("unsupported verb %q", action.Verb))
	}

	url := c.base + "/" + strings.Trim(action.Resource, "/") + "/"
	var body io.Reader
	if len(action.Payload) > 0 {
		body = bytes.NewReader(action.Payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, PermanentFailure(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// Connectivity errors and timeouts, including context expiry.
		return nil, TransientFailure(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, TransientFailure(fmt.Errorf("read response from %s: %w", url, err))
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return payload, nil
	case resp.StatusCode >= 500:
		return nil, TransientFailure(fmt.Errorf("http %s: status %d", url, resp.StatusCode))
	case resp.StatusCode == http.StatusBadRequest && action.Verb == VerbCreate:
		return nil, PermanentFailure(fmt.Errorf("http %s: status %d: %w", url, resp.StatusCode, ErrAlreadyApplied))
	case resp.StatusCode == http.StatusNotFound && action.Verb == VerbDelete:
		return nil, PermanentFailure(fmt.Errorf("http %s: status %d: %w", url, resp.StatusCode, ErrAlreadyApplied))
	default:
		return nil, PermanentFailure(fmt.Errorf("http %s: status %d", url, resp.StatusCode))
	}
}
