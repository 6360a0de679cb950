package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

const chunkSize = 32 * 1024

// Progress is a point-in-time view of a running transfer. Speed is in
// MiB/s, computed over the whole transfer so far.
type Progress struct {
	Current int64   `json:"current"`
	Total   int64   `json:"total"`
	Speed   float64 `json:"speed"`
}

// Limiter bounds the number of concurrent transfers across engines.
type Limiter struct {
	sem *semaphore.Weighted
}

// NewLimiter creates a transfer limiter admitting n concurrent downloads.
// Non-positive n falls back to 1.
func NewLimiter(n int) *Limiter {
	if n < 1 {
		n = 1
	}
	return &Limiter{sem: semaphore.NewWeighted(int64(n))}
}

// Engine streams HTTP bodies to disk, keeping one progress record per
// running transfer.
type Engine struct {
	client  *http.Client
	limiter *Limiter

	mu        sync.RWMutex
	transfers map[string]Progress
}

// NewEngine creates a download engine. A nil client falls back to
// http.DefaultClient; a nil limiter leaves transfers unbounded.
func NewEngine(client *http.Client, limiter *Limiter) *Engine {
	if client == nil {
		client = http.DefaultClient
	}
	return &Engine{client: client, limiter: limiter, transfers: make(map[string]Progress)}
}

// Progress returns the record for the transfer with the given id. The
// second return value is false once the transfer has finished.
func (e *Engine) Progress(id string) (Progress, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.transfers[id]
	return p, ok
}

// Transfers returns a copy of all running transfer records, keyed by
// transfer id.
func (e *Engine) Transfers() map[string]Progress {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[string]Progress, len(e.transfers))
	for id, p := range e.transfers {
		out[id] = p
	}
	return out
}

// Download streams the response body for url into dest, creating parent
// directories as needed. The transfer's progress record is registered
// under id on entry, updated after every chunk and removed when Download
// returns. Any network or I/O failure aborts immediately and leaves the
// partially written file on disk; cleanup is the caller's responsibility.
func (e *Engine) Download(ctx context.Context, id, url, dest string) error {
	e.setProgress(id, Progress{})
	defer e.clearProgress(id)

	if e.limiter != nil {
		if err := e.limiter.sem.Acquire(ctx, 1); err != nil {
			return fmt.Errorf("failed to acquire download slot: %w", err)
		}
		defer e.limiter.sem.Release(1)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("invalid download url %s: %w", url, err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download request failed: unexpected status %s", resp.Status)
	}
	if resp.ContentLength < 0 {
		return fmt.Errorf("download source did not report a content length")
	}

	e.setProgress(id, Progress{Total: resp.ContentLength})

	if dir := filepath.Dir(dest); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create download directory: %w", err)
		}
	}

	file, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer file.Close()

	var received int64
	start := time.Now()
	buf := make([]byte, chunkSize)

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := file.Write(buf[:n]); err != nil {
				return fmt.Errorf("failed to write %s: %w", dest, err)
			}
			received += int64(n)

			speed := 0.0
			if elapsed := time.Since(start).Seconds(); elapsed > 0 {
				speed = float64(received) / elapsed / (1024 * 1024)
			}
			e.setProgress(id, Progress{Current: received, Total: resp.ContentLength, Speed: speed})
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("download stream failed: %w", readErr)
		}
	}

	return nil
}

func (e *Engine) setProgress(id string, p Progress) {
	e.mu.Lock()
	e.transfers[id] = p
	e.mu.Unlock()
}

func (e *Engine) clearProgress(id string) {
	e.mu.Lock()
	delete(e.transfers, id)
	e.mu.Unlock()
}
