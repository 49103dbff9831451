package cart

import (
	"sync"
	"time"
)

const (
	// SessionTTL is how long an idle cart survives before being dropped.
	SessionTTL = 2 * time.Hour

	// CleanupInterval is how often the background cleanup runs.
	CleanupInterval = 5 * time.Minute
)

type sessionEntry struct {
	store    *Store
	lastSeen time.Time
}

// Sessions owns one cart store per shopper session. An abandoned session's
// cart simply ceases to exist after the TTL; that is expected, not an error.
type Sessions struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

func NewSessions() *Sessions {
	s := &Sessions{
		entries:     make(map[string]*sessionEntry),
		stopCleanup: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

func (s *Sessions) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expire()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *Sessions) expire() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-SessionTTL)
	for id, e := range s.entries {
		if e.lastSeen.Before(cutoff) {
			delete(s.entries, id)
		}
	}
}

// Get returns the cart store for the session, creating an empty one on
// first use, and refreshes the session's idle timer.
func (s *Sessions) Get(sessionID string) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[sessionID]
	if !ok {
		e = &sessionEntry{store: NewStore()}
		s.entries[sessionID] = e
	}
	e.lastSeen = time.Now()
	return e.store
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// Close stops the background cleanup and waits for it to finish.
func (s *Sessions) Close() error {
	close(s.stopCleanup)
	s.wg.Wait()
	return nil
}
