// Package panelclient provides the HTTP client the bridge uses to talk to
// the SPC42 panel's web UI: a shared client with a cookie jar persisted to
// disk, an 8 second per-request timeout, and UTF-8 body decoding regardless
// of the page's declared charset.
//
// The factory mirrors the teacher engine's client package (a dedicated
// *http.Transport with tuned pool limits instead of relying on
// http.DefaultTransport's shared pool), adapted down from "one transport per
// session, thousands of sessions" to "one transport, one panel, one
// process."
package panelclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RequestTimeout is the end-to-end timeout for a single HTTP request,
// per spec.md §4.A.
const RequestTimeout = 8 * time.Second

// Client wraps *http.Client with the panel-specific GET/POST helpers spec.md
// §4.A describes: raise on HTTP >= 400, expose the final URL after
// redirects, decode bodies as UTF-8 unconditionally, and persist the cookie
// jar after every successful request.
type Client struct {
	http *http.Client
	jar  *PersistentJar
}

// New constructs a Client backed by a dedicated *http.Transport and a
// PersistentJar loaded from (or created at) jarPath.
func New(jarPath string) (*Client, error) {
	jar, err := LoadOrCreate(jarPath)
	if err != nil {
		return nil, fmt.Errorf("panelclient: load cookie jar: %w", err)
	}

	transport := &http.Transport{
		DisableKeepAlives:     false,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			Jar:       jar,
			Timeout:   RequestTimeout,
			// CheckRedirect left nil: POSTs follow redirects automatically,
			// per spec.md §4.A ("POSTs follow redirects by default").
		},
		jar: jar,
	}, nil
}

// Result is the outcome of a panel HTTP call: the decoded body, the final
// URL after any redirects (the session id appears there after login, per
// spec.md §4.B), and the status code.
type Result struct {
	Body       string
	FinalURL   string
	StatusCode int
	SaveErr    error
}

// HTTPStatusError is returned by Get/PostForm when the panel responds with
// HTTP >= 400. The command router (internal/mqttbridge) inspects StatusCode
// to classify the ack it publishes (error:http-<code>, spec.md §4.G).
type HTTPStatusError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("panelclient: %s %s: HTTP %d", e.Method, e.URL, e.StatusCode)
}

// Get issues an HTTP GET to targetURL and returns the decoded body.
// Raises an error on network failure or HTTP >= 400, per spec.md §4.A.
func (c *Client) Get(ctx context.Context, targetURL string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("panelclient: build GET %s: %w", targetURL, err)
	}
	return c.do(req)
}

// PostForm issues an HTTP POST with a form-encoded body to targetURL.
func (c *Client) PostForm(ctx context.Context, targetURL string, form url.Values) (Result, error) {
	body := strings.NewReader(form.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, body)
	if err != nil {
		return Result{}, fmt.Errorf("panelclient: build POST %s: %w", targetURL, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (Result, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("panelclient: %s %s: %w", req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("panelclient: read body of %s %s: %w", req.Method, req.URL, err)
	}

	result := Result{
		// The panel always serves UTF-8 despite whatever charset the page
		// declares (spec.md §4.A); no transcoding library is needed because
		// the bytes are already the encoding we want -- see DESIGN.md.
		Body:       string(raw),
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
	}

	if resp.StatusCode >= 400 {
		return result, &HTTPStatusError{Method: req.Method, URL: req.URL.String(), StatusCode: resp.StatusCode}
	}

	// Best-effort save (spec.md §4.A): a failure here does not fail the
	// request that just succeeded. The caller may inspect SaveErr if it
	// cares; the next successful request will simply try again.
	result.SaveErr = c.jar.Save()

	return result, nil
}

// CloseIdleConnections releases pooled transport connections. Called during
// orderly shutdown (spec.md §5).
func (c *Client) CloseIdleConnections() {
	if t, ok := c.http.Transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
}
