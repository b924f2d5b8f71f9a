package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/five82/cattlelens/internal/classifier"
	"github.com/five82/cattlelens/internal/state"
)

const (
	defaultPollInterval = 30 * time.Second
	maxBackoff          = 5 * time.Minute
)

var errNoneReachable = errors.New("no candidate endpoint reachable")

// Prober is the part of the classifier the poller needs.
type Prober interface {
	TestConnectivity(ctx context.Context) []classifier.ProbeResult
	Endpoint() (string, bool)
}

// StartPoller launches a background goroutine that sweeps every candidate and
// publishes the results to store. While no candidate answers, the delay
// between sweeps doubles up to maxBackoff. It returns immediately.
func StartPoller(ctx context.Context, store *state.Store, prober Prober, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		timer := time.NewTimer(0)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			_ = refresh(ctx, store, prober, logger)
			timer.Reset(calculateBackoff(store.Snapshot().ConsecutiveFailures, interval))
		}
	}()
}

func refresh(ctx context.Context, store *state.Store, prober Prober, logger *slog.Logger) error {
	results := prober.TestConnectivity(ctx)
	endpoint, _ := prober.Endpoint()

	var err error
	if !anyOK(results) {
		err = errNoneReachable
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	store.Update(results, endpoint, err)

	if err != nil {
		logger.Warn("connectivity sweep failed", "candidates", len(results))
		return err
	}
	logger.Debug("connectivity sweep", "candidates", len(results), "endpoint", endpoint)
	return nil
}

func anyOK(results []classifier.ProbeResult) bool {
	for _, r := range results {
		if r.OK() {
			return true
		}
	}
	return false
}

// calculateBackoff returns base doubled once per consecutive failure, capped
// at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for range failures {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}
