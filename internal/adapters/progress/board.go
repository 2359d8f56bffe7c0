package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"albumgrab/internal/core/ports"
)

// DefaultInterval is the minimum time between two lines for one transfer.
const DefaultInterval = 500 * time.Millisecond

// Board renders progress of concurrent transfers as plain lines.
// Each handle owns a copy of its label; the board only serializes output.
type Board struct {
	mu       sync.Mutex
	out      io.Writer
	interval time.Duration
	now      func() time.Time
}

// NewBoard creates a Board writing to out. An interval of 0 renders every
// update.
func NewBoard(out io.Writer, interval time.Duration) *Board {
	return &Board{out: out, interval: interval, now: time.Now}
}

// Track registers a transfer and returns its handle.
func (b *Board) Track(label string, total uint64) ports.ProgressHandle {
	return &bar{
		board: b,
		label: "Downloading " + label,
		total: total,
	}
}

func (b *Board) println(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprintln(b.out, line)
}

type bar struct {
	board    *Board
	label    string
	total    uint64
	pos      uint64
	last     time.Time
	finished bool
}

func (p *bar) SetPosition(pos uint64) {
	if p.finished {
		return
	}
	p.pos = pos
	now := p.board.now()
	if p.board.interval > 0 && !p.last.IsZero() && now.Sub(p.last) < p.board.interval {
		return
	}
	p.last = now
	p.board.println(p.line())
}

func (p *bar) Done() {
	if p.finished {
		return
	}
	p.finished = true
	p.board.println(p.line() + " done")
}

func (p *bar) Fail(err error) {
	if p.finished {
		return
	}
	p.finished = true
	p.board.println(fmt.Sprintf("%s failed: %v", p.line(), err))
}

func (p *bar) line() string {
	if p.total == 0 {
		return fmt.Sprintf("%s %s", p.label, humanize.Bytes(p.pos))
	}
	pct := float64(p.pos) / float64(p.total) * 100
	return fmt.Sprintf("%s %s / %s (%.0f%%)", p.label, humanize.Bytes(p.pos), humanize.Bytes(p.total), pct)
}

// Discard is a sink that drops every update.
var Discard ports.ProgressSink = discard{}

type discard struct{}

func (discard) Track(string, uint64) ports.ProgressHandle { return nopHandle{} }

type nopHandle struct{}

func (nopHandle) SetPosition(uint64) {}
func (nopHandle) Done()              {}
func (nopHandle) Fail(error)         {}
