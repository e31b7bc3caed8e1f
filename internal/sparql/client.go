package sparql

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/ficr/insight/pkg/logger"
)

// Post conventions from the SPARQL 1.1 protocol. Both are valid against
// GraphDB; which one a deployment uses must match its endpoint configuration.
const (
	PostForm   = "form"   // application/x-www-form-urlencoded, query=<text>
	PostDirect = "direct" // application/sparql-query, raw query body
)

// TransportError is a network-level failure: no HTTP response was received.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("sparql endpoint unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// EndpointError is a non-2xx response. The body is kept verbatim for
// diagnostic display; this layer cannot tell a malformed query from a
// server-side fault.
type EndpointError struct {
	StatusCode int
	Body       string
}

func (e *EndpointError) Error() string {
	return fmt.Sprintf("sparql endpoint returned %d: %s", e.StatusCode, e.Body)
}

// MalformedResponseError is a 2xx response whose body does not parse as
// sparql-results+json. Distinct from an empty result set, which is success.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("sparql response body is not valid sparql-results+json: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Client executes SPARQL queries against one configured repository endpoint.
// It performs a single request-response cycle per query: no retries and no
// timeout of its own. Cancellation is the caller's, through the context.
type Client struct {
	endpoint  string
	postStyle string
	username  string
	password  string
	http      *http.Client
}

func NewClient(endpoint, postStyle, username, password string) *Client {
	logger.Info("SPARQL client initialized",
		zap.String("endpoint", endpoint),
		zap.String("post_style", postStyle),
	)

	return &Client{
		endpoint:  endpoint,
		postStyle: postStyle,
		username:  username,
		password:  password,
		http:      &http.Client{},
	}
}

// Query runs one SELECT query and returns the decoded result set.
func (c *Client) Query(ctx context.Context, query string) (*ResultSet, error) {
	req, err := c.newRequest(ctx, query)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, &EndpointError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var wire Response
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, &MalformedResponseError{Err: err}
	}

	rs := DecodeResponse(&wire)

	logger.Debug("SPARQL query executed",
		zap.Int("variables", len(rs.Variables)),
		zap.Int("rows", len(rs.Rows)),
	)

	return rs, nil
}

func (c *Client) newRequest(ctx context.Context, query string) (*http.Request, error) {
	var body io.Reader
	var contentType string

	switch c.postStyle {
	case PostForm:
		body = strings.NewReader(url.Values{"query": {query}}.Encode())
		contentType = "application/x-www-form-urlencoded"
	default:
		body = strings.NewReader(query)
		contentType = "application/sparql-query"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build sparql request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/sparql-results+json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	return req, nil
}
