package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"albumgrab/internal/core/domain"
	"albumgrab/internal/core/ports"
)

// Setup steps that abort a job before any transfer starts.
const (
	StepFetch = "fetch"
	StepParse = "parse"
	StepMkdir = "mkdir"
)

// SetupError is a fatal failure that happened before the batch started.
type SetupError struct {
	Step string
	Err  error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup failed at %s: %v", e.Step, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// Orchestrator coordinates the listing scrape and the download batch.
type Orchestrator struct {
	source    ports.LinkSource
	storage   ports.Storage
	unit      *TransferUnit
	admission *AdmissionController
	logger    *slog.Logger
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(
	source ports.LinkSource,
	downloader ports.Downloader,
	storage ports.Storage,
	progress ports.ProgressSink,
	admission *AdmissionController,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		source:    source,
		storage:   storage,
		unit:      NewTransferUnit(downloader, storage, progress, logger),
		admission: admission,
		logger:    logger,
	}
}

// RunJob scrapes the listing page, prepares the output directory and
// downloads every link found. Only setup failures are returned as errors;
// per-file failures are part of the batch result.
func (o *Orchestrator) RunJob(ctx context.Context, listingURL string) (*domain.BatchResult, error) {
	logger := o.logger.With("listing", listingURL)

	logger.Info("fetching listing page")
	links, err := o.source.Links(ctx, listingURL)
	if err != nil {
		step := StepFetch
		if errors.Is(err, domain.ErrMalformedListing) {
			step = StepParse
		}
		logger.Error("listing unavailable", "step", step, "error", err)
		return nil, &SetupError{Step: step, Err: err}
	}
	logger.Info("listing parsed", "links", len(links))

	if err := o.storage.EnsureDir(ctx); err != nil {
		logger.Error("output directory unavailable", "dir", o.storage.Dir(), "error", err)
		return nil, &SetupError{Step: StepMkdir, Err: err}
	}

	batch := o.RunBatch(ctx, links)
	batch.ListingURL = listingURL
	return batch, nil
}

// RunBatch downloads every link with at most Capacity() transfers in flight.
// The output directory must already exist. Results are in completion order
// and there is exactly one per link.
func (o *Orchestrator) RunBatch(ctx context.Context, links []domain.Link) *domain.BatchResult {
	batch := &domain.BatchResult{
		ID:        uuid.New().String(),
		OutputDir: o.storage.Dir(),
		Results:   make([]domain.TransferResult, 0, len(links)),
		StartedAt: time.Now().UTC(),
	}
	logger := o.logger.With("batch", batch.ID)
	logger.Info("starting batch", "links", len(links), "lanes", o.admission.Capacity(), "dir", batch.OutputDir)

	results := make(chan domain.TransferResult, len(links))
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for r := range results {
			batch.Results = append(batch.Results, r)
			if r.OK() {
				logger.Info("downloaded", "name", r.Link.Name, "bytes", r.Bytes)
			} else {
				logger.Warn("download failed", "name", r.Link.Name, "error", r.Err)
			}
		}
	}()

	var g errgroup.Group
	for i, link := range links {
		permit, err := o.admission.Acquire(ctx)
		if err != nil {
			// Cancelled while waiting for a slot.
			now := time.Now().UTC()
			for _, rest := range links[i:] {
				results <- domain.TransferResult{
					Link:       rest,
					StartedAt:  now,
					FinishedAt: now,
					Err: &domain.TransferError{
						Name:  rest.Name,
						URL:   rest.URL,
						Stage: domain.StageCancelled,
						Err:   err,
					},
				}
			}
			break
		}

		g.Go(func() error {
			defer permit.Release()
			results <- o.unit.Run(ctx, link)
			return nil
		})
	}

	_ = g.Wait()
	close(results)
	<-collected

	batch.FinishedAt = time.Now().UTC()
	logger.Info("batch finished",
		"succeeded", batch.Succeeded(),
		"failed", batch.Failed(),
		"elapsed", batch.FinishedAt.Sub(batch.StartedAt).Round(time.Millisecond))
	return batch
}
