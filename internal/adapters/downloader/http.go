package downloader

import (
	"context"
	"fmt"
	"time"

	"github.com/imroc/req/v3"

	"albumgrab/internal/core/domain"
	"albumgrab/internal/core/ports"
)

// BrowserUserAgent keeps naive bot filters from rejecting requests.
const BrowserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/112.0.0.0 Safari/537.36"

// NewClient builds the HTTP client shared by every request of a run.
// A zero timeout means no overall request timeout.
func NewClient(timeout time.Duration) *req.Client {
	c := req.C().
		SetUserAgent(BrowserUserAgent).
		SetCommonHeader("Accept", "*/*")
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return c
}

// HTTPDownloader implements ports.Downloader on top of a shared req client.
type HTTPDownloader struct {
	client *req.Client
}

// NewHTTPDownloader creates a new HTTPDownloader. Bodies are passed through
// untouched, so text responses keep their original charset.
func NewHTTPDownloader(client *req.Client) *HTTPDownloader {
	return &HTTPDownloader{client: client.Clone().DisableAutoDecode()}
}

// Open issues a GET and hands the unread body to the caller.
func (d *HTTPDownloader) Open(ctx context.Context, url string) (*ports.Body, error) {
	resp, err := d.client.R().
		SetContext(ctx).
		DisableAutoReadResponse().
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to request %s: %w", url, err)
	}

	if !resp.IsSuccessState() {
		resp.Body.Close()
		return nil, &StatusError{Code: resp.GetStatusCode(), Status: resp.GetStatus()}
	}

	return &ports.Body{
		ReadCloser:    resp.Body,
		ContentLength: resp.ContentLength,
	}, nil
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %s", e.Status)
}

func (e *StatusError) Unwrap() error {
	return domain.ErrBadStatus
}
