package service

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// DefaultConcurrency is the number of simultaneous transfers when none is
// configured.
const DefaultConcurrency = 5

// AdmissionController caps the number of transfers running at once.
type AdmissionController struct {
	sem      *semaphore.Weighted
	capacity int
	inUse    atomic.Int64
}

// NewAdmissionController creates a controller with the given capacity.
// Capacities below 1 fall back to DefaultConcurrency.
func NewAdmissionController(capacity int) *AdmissionController {
	if capacity < 1 {
		capacity = DefaultConcurrency
	}
	return &AdmissionController{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: capacity,
	}
}

// Acquire blocks until a slot is free or ctx is done.
func (a *AdmissionController) Acquire(ctx context.Context) (*Permit, error) {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	a.inUse.Add(1)
	return &Permit{owner: a}, nil
}

// Capacity returns the configured number of slots.
func (a *AdmissionController) Capacity() int {
	return a.capacity
}

// InUse returns the number of permits currently held.
func (a *AdmissionController) InUse() int {
	return int(a.inUse.Load())
}

// Permit grants its holder one transfer slot.
type Permit struct {
	owner *AdmissionController
	once  sync.Once
}

// Release returns the slot. Calls after the first are no-ops.
func (p *Permit) Release() {
	p.once.Do(func() {
		p.owner.inUse.Add(-1)
		p.owner.sem.Release(1)
	})
}
