package acquire

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	errs "github.com/matzehuels/nccs/pkg/errors"
	"github.com/matzehuels/nccs/pkg/observability"
)

// DefaultHeaders is the fixed header set sent with every download. Some
// distribution points refuse clients that do not look like a browser.
var DefaultHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
	"Accept":     "*/*",
}

// Client issues plain GET requests with a fixed header set. It does not
// retry.
type Client struct {
	http    *http.Client
	headers map[string]string
}

// NewClient creates a Client. A zero timeout means requests never time out
// on their own; cancel the context to abort them. Nil headers use
// [DefaultHeaders].
func NewClient(timeout time.Duration, headers map[string]string) *Client {
	if headers == nil {
		headers = DefaultHeaders
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		headers: headers,
	}
}

// Get performs a GET and returns the response with a success status. The
// caller closes the body.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "build request for %s", rawURL)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	host, path := hostPath(req.URL)
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "fetch %s", rawURL)
	}
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		defer resp.Body.Close()
		if isNotFoundPage(resp) {
			return nil, errs.New(errs.ErrCodeInvalidURL, "the url %s appears to be invalid", rawURL)
		}
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "fetch %s", rawURL)
	}
	return resp, nil
}

// maxErrorPage bounds how much of an error response is searched for
// [NotFoundMarker].
const maxErrorPage = 1 << 20

// isNotFoundPage reports whether an error response is an HTML page
// carrying [NotFoundMarker].
func isNotFoundPage(resp *http.Response) bool {
	if !isHTML(resp.Header.Get("Content-Type")) {
		return false
	}
	page, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorPage))
	return bytes.Contains(page, []byte(NotFoundMarker))
}

func checkStatus(code int) error {
	if code >= 200 && code < 300 {
		return nil
	}
	return fmt.Errorf("status %d %s", code, http.StatusText(code))
}

func hostPath(u *url.URL) (string, string) {
	if u == nil {
		return "", ""
	}
	return u.Host, u.Path
}
