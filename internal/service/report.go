package service

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"albumgrab/internal/core/domain"
)

// WriteReport prints one line per transfer result followed by a summary.
func WriteReport(w io.Writer, batch *domain.BatchResult) error {
	if _, err := fmt.Fprintln(w, "\n=== Download Report ==="); err != nil {
		return err
	}
	for _, r := range batch.Results {
		var err error
		if r.OK() {
			_, err = fmt.Fprintf(w, "ok    %s (%s)\n", r.Link.Name, humanize.Bytes(uint64(r.Bytes)))
		} else {
			_, err = fmt.Fprintf(w, "FAIL  %s: %v\n", r.Link.Name, r.Err)
		}
		if err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "\nBatch:     %s\nDirectory: %s\nSucceeded: %d\nFailed:    %d\nElapsed:   %s\n",
		batch.ID,
		batch.OutputDir,
		batch.Succeeded(),
		batch.Failed(),
		batch.FinishedAt.Sub(batch.StartedAt).Round(time.Millisecond),
	)
	return err
}
