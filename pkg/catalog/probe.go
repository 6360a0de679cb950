package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bootpe/pluginmart/pkg/mode"
)

const (
	probeAttempts = 3
	probeTimeout  = 5 * time.Second
	probeDelay    = 1 * time.Second
)

// Probe checks connectivity to the mode's upstream server. Up to three
// attempts with a five-second timeout each and a one-second pause between
// attempts; an attempt succeeds when the response body is non-empty.
// Exhausting the attempts is a terminal failure for this check.
func (f *Fetcher) Probe(ctx context.Context, m mode.Mode) error {
	return f.probeURL(ctx, m.ConnectTestURL())
}

func (f *Fetcher) probeURL(ctx context.Context, url string) error {
	if url == "" {
		return &ProtocolError{URL: url, Message: "mode has no connectivity endpoint"}
	}

	var lastErr error
	for attempt := 1; attempt <= probeAttempts; attempt++ {
		lastErr = f.probeOnce(ctx, url)
		if lastErr == nil {
			return nil
		}
		f.log.Debugf("Connectivity probe attempt %d/%d failed: %v", attempt, probeAttempts, lastErr)

		if attempt < probeAttempts {
			select {
			case <-time.After(probeDelay):
			case <-ctx.Done():
				return &NetworkError{URL: url, Err: ctx.Err()}
			}
		}
	}
	return &NetworkError{URL: url, Err: fmt.Errorf("connectivity probe failed after %d attempts: %w", probeAttempts, lastErr)}
}

func (f *Fetcher) probeOnce(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return fmt.Errorf("empty response from %s", url)
	}
	return nil
}
