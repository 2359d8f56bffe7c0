package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"albumgrab/internal/core/domain"
	"albumgrab/internal/core/ports"
)

const chunkSize = 32 << 10

// TransferUnit downloads one link into the output directory.
type TransferUnit struct {
	downloader ports.Downloader
	storage    ports.Storage
	progress   ports.ProgressSink
	logger     *slog.Logger
}

// NewTransferUnit creates a new TransferUnit.
func NewTransferUnit(
	downloader ports.Downloader,
	storage ports.Storage,
	progress ports.ProgressSink,
	logger *slog.Logger,
) *TransferUnit {
	return &TransferUnit{
		downloader: downloader,
		storage:    storage,
		progress:   progress,
		logger:     logger,
	}
}

// Run streams link into its file and reports progress while doing so.
// A partially written file is left in place on failure.
func (u *TransferUnit) Run(ctx context.Context, link domain.Link) domain.TransferResult {
	result := domain.TransferResult{Link: link, StartedAt: time.Now().UTC()}
	fail := func(stage domain.Stage, err error) domain.TransferResult {
		result.Err = &domain.TransferError{Name: link.Name, URL: link.URL, Stage: stage, Err: err}
		result.FinishedAt = time.Now().UTC()
		u.logger.Debug("transfer failed", "name", link.Name, "stage", stage, "error", err)
		return result
	}

	body, err := u.downloader.Open(ctx, link.URL)
	if err != nil {
		stage := domain.StageRequest
		if errors.Is(err, domain.ErrBadStatus) {
			stage = domain.StageStatus
		}
		return fail(stage, err)
	}
	defer body.Close()

	var total uint64
	if body.ContentLength > 0 {
		total = uint64(body.ContentLength)
	}

	file, err := u.storage.Create(link.Name)
	if err != nil {
		return fail(domain.StageCreate, err)
	}
	result.Path = u.storage.Path(link.Name)

	bar := u.progress.Track(link.Name, total)

	written, stage, err := stream(file, body, total, bar)
	if cerr := file.Close(); err == nil && cerr != nil {
		stage, err = domain.StageWrite, cerr
	}
	result.Bytes = written
	if err != nil {
		bar.Fail(err)
		return fail(stage, err)
	}

	bar.Done()
	result.FinishedAt = time.Now().UTC()
	u.logger.Debug("transfer done", "name", link.Name, "bytes", written)
	return result
}

// stream copies src into dst chunk by chunk. The reported position never
// goes backwards and is clamped to total when total is known.
func stream(dst io.Writer, src io.Reader, total uint64, bar ports.ProgressHandle) (int64, domain.Stage, error) {
	buf := make([]byte, chunkSize)
	var written int64
	var pos uint64

	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			wn, werr := dst.Write(buf[:n])
			written += int64(wn)
			if werr == nil && wn != n {
				werr = io.ErrShortWrite
			}
			if werr != nil {
				return written, domain.StageWrite, werr
			}

			pos += uint64(n)
			if total > 0 && pos > total {
				pos = total
			}
			bar.SetPosition(pos)
		}
		if rerr == io.EOF {
			return written, "", nil
		}
		if rerr != nil {
			return written, domain.StageRead, rerr
		}
	}
}
