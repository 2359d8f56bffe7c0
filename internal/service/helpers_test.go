package service

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"albumgrab/internal/core/ports"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingSink keeps every update per label for later inspection.
type recordingSink struct {
	mu      sync.Mutex
	handles map[string]*recordingHandle
}

func newRecordingSink() *recordingSink {
	return &recordingSink{handles: map[string]*recordingHandle{}}
}

func (s *recordingSink) Track(label string, total uint64) ports.ProgressHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := &recordingHandle{total: total}
	s.handles[label] = h
	return h
}

func (s *recordingSink) get(label string) *recordingHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handles[label]
}

type recordingHandle struct {
	total     uint64
	positions []uint64
	done      bool
	failed    error
}

func (h *recordingHandle) SetPosition(pos uint64) { h.positions = append(h.positions, pos) }
func (h *recordingHandle) Done()                  { h.done = true }
func (h *recordingHandle) Fail(err error)         { h.failed = err }

// fileServer serves /files/<size> with that many bytes, tracking how many
// requests are in flight at once.
type fileServer struct {
	*httptest.Server
	delay    time.Duration
	running  atomic.Int64
	peak     atomic.Int64
	requests atomic.Int64
	noLength bool
}

func newFileServer(t *testing.T, delay time.Duration) *fileServer {
	fs := &fileServer{delay: delay}
	mux := http.NewServeMux()
	mux.HandleFunc("/files/{size}", fs.serve)
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fileServer) serve(w http.ResponseWriter, r *http.Request) {
	fs.requests.Add(1)
	n := fs.running.Add(1)
	defer fs.running.Add(-1)
	for {
		old := fs.peak.Load()
		if n <= old || fs.peak.CompareAndSwap(old, n) {
			break
		}
	}

	size, err := strconv.Atoi(r.PathValue("size"))
	if err != nil {
		http.Error(w, "bad size", http.StatusBadRequest)
		return
	}
	time.Sleep(fs.delay)

	body := payload(size)
	if !fs.noLength {
		w.Header().Set("Content-Length", strconv.Itoa(size))
	}
	w.WriteHeader(http.StatusOK)
	if fl, ok := w.(http.Flusher); ok && fs.noLength {
		fl.Flush()
	}
	_, _ = w.Write(body)
}

func (fs *fileServer) fileURL(size int) string {
	return fs.URL + "/files/" + strconv.Itoa(size)
}

func payload(size int) []byte {
	b := make([]byte, size)
	for i := range b {
		b[i] = byte('a' + i%26)
	}
	return b
}
