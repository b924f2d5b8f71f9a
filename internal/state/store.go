package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/cattlelens/internal/classifier"
)

// Snapshot is the latest connectivity picture available to the UI.
type Snapshot struct {
	Probes              []classifier.ProbeResult
	HasProbes           bool
	Endpoint            string // resolved endpoint, "" until resolution succeeds
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // sweeps in a row where no candidate answered
}

// Reachable returns how many candidates answered the last sweep.
func (s Snapshot) Reachable() int {
	n := 0
	for _, p := range s.Probes {
		if p.OK() {
			n++
		}
	}
	return n
}

// IsOffline returns true when no candidate has answered for multiple sweeps.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update records a connectivity sweep. Probe results are always replaced so
// the UI shows each candidate's latest error; err marks the sweep as failed.
func (s *Store) Update(probes []classifier.ProbeResult, endpoint string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Probes = cloneProbes(probes)
	s.snapshot.HasProbes = len(probes) > 0
	if endpoint != "" {
		s.snapshot.Endpoint = endpoint
	}
	s.snapshot.LastUpdated = time.Now()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// SetEndpoint records the resolved endpoint without touching probe data.
func (s *Store) SetEndpoint(endpoint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Endpoint = endpoint
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Probes = cloneProbes(s.snapshot.Probes)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneProbes(items []classifier.ProbeResult) []classifier.ProbeResult {
	if len(items) == 0 {
		return nil
	}
	dup := make([]classifier.ProbeResult, len(items))
	copy(dup, items)
	return dup
}
