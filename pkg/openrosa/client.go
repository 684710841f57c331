// Package openrosa talks to a remote OpenRosa server: form list discovery,
// XForm and manifest retrieval and authentication negotiation.
package openrosa

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/odk-sre/webform-manager/internal/errdef"
)

const openRosaVersion = "1.0"

func NewClient(logger *slog.Logger, timeout time.Duration, legacyProbe bool) *Client {
	probeMethod := http.MethodHead
	if legacyProbe {
		// some servers only implement GET, not HEAD
		probeMethod = http.MethodGet
	}
	return &Client{
		logger:      logger,
		client:      &http.Client{Timeout: timeout},
		probeMethod: probeMethod,
	}
}

// Client issues requests against an OpenRosa server. Every request carries
// the OpenRosa version and a Date header and is bounded by the configured
// timeout. Credentials are never logged.
type Client struct {
	logger      *slog.Logger
	client      *http.Client
	probeMethod string
}

type request struct {
	method     string
	url        string
	authHeader string
	cookie     string
	body       io.Reader
}

type response struct {
	body   []byte
	header http.Header
}

func (c *Client) newRequest(ctx context.Context, req request) (*http.Request, error) {
	method := req.method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.url, req.body)
	if err != nil {
		return nil, errdef.NewBadRequest("invalid request for %q: %v", req.url, err)
	}
	httpReq.Header.Set("X-OpenRosa-Version", openRosaVersion)
	httpReq.Header.Set("Date", time.Now().UTC().Format(http.TimeFormat))
	if req.authHeader != "" {
		httpReq.Header.Set("Authorization", req.authHeader)
	}
	if req.cookie != "" {
		httpReq.Header.Set("Cookie", req.cookie)
	}
	return httpReq, nil
}

func (c *Client) do(ctx context.Context, req request) (*response, error) {
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	c.logger.DebugContext(ctx, "requesting OpenRosa server", "method", httpReq.Method, "url", req.url)

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		// timeouts and transport failures are both retryable for the caller
		return nil, errdef.NewNetwork(err)
	}
	defer httpResp.Body.Close()

	switch {
	case httpResp.StatusCode == http.StatusUnauthorized:
		return nil, errdef.NewUnauthorized("authorization required by %q", req.url)
	case httpResp.StatusCode < http.StatusOK || httpResp.StatusCode >= http.StatusMultipleChoices:
		return nil, errdef.NewUpstream(httpResp.StatusCode, "request to %q failed with status %d", req.url, httpResp.StatusCode)
	case httpReq.Method == http.MethodHead:
		return &response{header: httpResp.Header}, nil
	}

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errdef.NewNetwork(err)
	}
	return &response{body: body, header: httpResp.Header}, nil
}

// FormListURL builds the form list endpoint for a server base URL.
func FormListURL(server string) string {
	return appendPath(server, "formList")
}

// SubmissionURL builds the submission endpoint for a server base URL.
func SubmissionURL(server string) string {
	return appendPath(server, "submission")
}

func appendPath(server, path string) string {
	if strings.HasSuffix(server, "/") {
		return server + path
	}
	return server + "/" + path
}
