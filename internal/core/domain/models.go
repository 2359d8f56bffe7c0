package domain

import (
	"errors"
	"fmt"
	"time"
)

// Link is one downloadable resource found on a listing page.
type Link struct {
	URL  string
	Name string // destination file name
}

// Less orders links by (URL, Name).
func (l Link) Less(other Link) bool {
	if l.URL != other.URL {
		return l.URL < other.URL
	}
	return l.Name < other.Name
}

// Stage names the step of a transfer that failed.
type Stage string

const (
	StageRequest   Stage = "request"
	StageStatus    Stage = "status"
	StageCreate    Stage = "create"
	StageRead      Stage = "read"
	StageWrite     Stage = "write"
	StageCancelled Stage = "cancelled"
)

// ErrMalformedListing is wrapped by errors for listing pages that cannot be
// parsed.
var ErrMalformedListing = errors.New("malformed listing page")

// ErrBadStatus is wrapped by errors for non-2xx responses.
var ErrBadStatus = errors.New("unexpected status")

// ErrUnsafeName is returned when a link name would not resolve to a file
// directly inside the output directory.
var ErrUnsafeName = errors.New("unsafe file name")

// TransferError is a per-link failure tagged with the link name.
type TransferError struct {
	Name  string
	URL   string
	Stage Stage
	Err   error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Name, e.Stage, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// TransferResult holds the outcome of a single transfer.
type TransferResult struct {
	Link       Link
	Path       string
	Bytes      int64
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// OK reports whether the transfer succeeded.
func (r TransferResult) OK() bool {
	return r.Err == nil
}

// BatchResult holds the outcome of a whole batch, in completion order.
type BatchResult struct {
	ID         string
	ListingURL string
	OutputDir  string
	Results    []TransferResult
	StartedAt  time.Time
	FinishedAt time.Time
}

// Succeeded returns the number of successful transfers.
func (b *BatchResult) Succeeded() int {
	n := 0
	for _, r := range b.Results {
		if r.OK() {
			n++
		}
	}
	return n
}

// Failed returns the number of failed transfers.
func (b *BatchResult) Failed() int {
	return len(b.Results) - b.Succeeded()
}
