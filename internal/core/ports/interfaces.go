package ports

import (
	"context"
	"io"

	"albumgrab/internal/core/domain"
)

// Body is an open response body with its declared length.
type Body struct {
	io.ReadCloser
	// ContentLength is -1 when the server did not declare one.
	ContentLength int64
}

// LinkSource defines the contract for discovering downloadable links on a
// listing page.
type LinkSource interface {
	// Links fetches the listing page and returns its deduplicated links.
	Links(ctx context.Context, listingURL string) ([]domain.Link, error)
}

// Downloader defines the contract for opening remote resources.
type Downloader interface {
	// Open issues a GET for the given URL.
	// Returns a Body that the caller must close.
	Open(ctx context.Context, url string) (*Body, error)
}

// Storage defines the contract for persisting downloaded files.
type Storage interface {
	// EnsureDir creates the output directory (recursively, idempotently).
	EnsureDir(ctx context.Context) error

	// Create creates or truncates the named file inside the output directory.
	Create(name string) (io.WriteCloser, error)

	// Path returns the filesystem path of the named file.
	Path(name string) string

	// Dir returns the output directory.
	Dir() string
}

// ProgressSink accepts progress updates from transfers.
type ProgressSink interface {
	// Track registers a transfer. total is 0 when unknown.
	Track(label string, total uint64) ProgressHandle
}

// ProgressHandle is owned by exactly one transfer.
type ProgressHandle interface {
	SetPosition(pos uint64)
	Done()
	Fail(err error)
}
