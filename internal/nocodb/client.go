// Package nocodb is the NocoDB API client. It resolves table names to
// backend ids, translates query options to the backend's wire form, falls
// back to client-side search and aggregation where the backend offers
// nothing reliable, and reports every failure as a *types.Error.
//
// Two API generations are mixed on purpose: base and table metadata live
// under /api/v1/db/meta, while records, views, columns and storage live
// under /api/v2. The families are not interchangeable on real servers.
package nocodb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/andrewlwn77/nocodb-mcp/pkg/types"
)

// Credential headers.
const (
	headerAPIToken  = "xc-token"
	headerAuthToken = "xc-auth"
)

// Endpoint paths. v1 serves base/table metadata; v2 serves the rest.
const (
	pathBases       = "/api/v1/db/meta/projects"
	pathBase        = "/api/v1/db/meta/projects/%s"
	pathBaseTables  = "/api/v1/db/meta/projects/%s/tables"
	pathTable       = "/api/v1/db/meta/tables/%s"
	pathColumns     = "/api/v2/meta/tables/%s/columns"
	pathColumn      = "/api/v2/meta/columns/%s"
	pathViews       = "/api/v2/meta/tables/%s/views"
	pathRecords     = "/api/v2/tables/%s/records"
	pathRecord      = "/api/v2/tables/%s/records/%s"
	pathUpload      = "/api/v2/storage/upload"
	pathUploadByURL = "/api/v2/storage/upload-by-url"
)

// Client talks to one NocoDB server with one set of credentials. It holds
// no per-call state and is safe for concurrent use.
type Client struct {
	baseURL   string
	apiToken  string
	authToken string
	http      *http.Client
	logger    *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient. Any request timeout comes
// from the supplied client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger enables one log line per round trip.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client from cfg. It fails when cfg does not validate, in
// particular when neither credential is set.
func New(cfg types.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiToken:  cfg.APIToken,
		authToken: cfg.AuthToken,
		http:      http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// rawBody is a request body sent as-is instead of being JSON encoded.
type rawBody struct {
	r           io.Reader
	contentType string
}

// endpoint formats a path template with escaped id segments.
func endpoint(format string, ids ...string) string {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = url.PathEscape(id)
	}
	return fmt.Sprintf(format, args...)
}

// do performs one round trip. body may be nil, a rawBody, or any value
// that encodes to JSON. When out is non-nil the response is decoded into
// it. Every failure comes back as a *types.Error.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	contentType := "application/json"
	switch b := body.(type) {
	case nil:
	case rawBody:
		reader = b.r
		contentType = b.contentType
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return types.Errorf(types.ErrInvalidArgument, "encode request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return types.Errorf(types.ErrTransport, "build request: %v", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.apiToken != "" {
		req.Header.Set(headerAPIToken, c.apiToken)
	}
	if c.authToken != "" {
		req.Header.Set(headerAuthToken, c.authToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logf("%s %s -> %v", method, path, err)
		return types.Errorf(types.ErrTransport, "%v", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return &types.Error{
			Kind:       types.ErrTransport,
			Message:    fmt.Sprintf("read response: %v", err),
			StatusCode: resp.StatusCode,
		}
	}
	c.logf("%s %s -> %d", method, path, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(resp.StatusCode, payload)
	}

	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &types.Error{
			Kind:       types.ErrTransport,
			Message:    fmt.Sprintf("decode response: %v", err),
			StatusCode: resp.StatusCode,
			Details:    rawDetails(payload),
		}
	}
	return nil
}

// responseError builds the error for a non-2xx response. The message comes
// from the payload's msg or message field when present.
func responseError(status int, payload []byte) *types.Error {
	e := &types.Error{
		Kind:       types.ErrTransport,
		Message:    fmt.Sprintf("Request failed with status code %d", status),
		StatusCode: status,
		Details:    rawDetails(payload),
	}
	var body struct {
		Msg     any `json:"msg"`
		Message any `json:"message"`
	}
	if json.Unmarshal(payload, &body) == nil {
		if s, ok := body.Msg.(string); ok && s != "" {
			e.Message = s
		} else if s, ok := body.Message.(string); ok && s != "" {
			e.Message = s
		}
	}
	return e
}

// rawDetails keeps payload as JSON when it is JSON, and as a JSON string
// otherwise, so Details always marshals.
func rawDetails(payload []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	quoted, _ := json.Marshal(string(trimmed))
	return quoted
}

func (c *Client) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
