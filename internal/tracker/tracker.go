// Package tracker converts raw user interaction events into periodic
// "minutes studied" reports. One Tracker belongs to one signed-in session;
// it is constructed on login and discarded on logout rather than shared as
// a process-wide singleton.
package tracker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

type State int

const (
	StateInactive State = iota
	StateActive
	StateIdle
)

const (
	DefaultInactivityThreshold = 5 * time.Minute
	DefaultSyncInterval        = 30 * time.Second
)

// SyncFunc reports accumulated minutes to the backend. Failures are
// swallowed by the tracker; the unflushed interval stays pending and is
// included in the next attempt.
type SyncFunc func(ctx context.Context, userID uuid.UUID, minutes int, timestamp time.Time) error

type Tracker struct {
	mu           sync.Mutex
	state        State
	userID       uuid.UUID
	sessionStart time.Time
	lastActivity time.Time

	syncFn              SyncFunc
	inactivityThreshold time.Duration
	syncInterval        time.Duration
	now                 func() time.Time

	stopChan chan struct{}
}

func New(syncFn SyncFunc, inactivityThreshold, syncInterval time.Duration) *Tracker {
	if inactivityThreshold <= 0 {
		inactivityThreshold = DefaultInactivityThreshold
	}
	if syncInterval <= 0 {
		syncInterval = DefaultSyncInterval
	}
	return &Tracker{
		syncFn:              syncFn,
		inactivityThreshold: inactivityThreshold,
		syncInterval:        syncInterval,
		now:                 time.Now,
	}
}

// Start begins a session for userID and launches the periodic check loop.
// Starting an already-started tracker restarts the session clock.
func (t *Tracker) Start(userID uuid.UUID) {
	t.mu.Lock()
	now := t.now()
	t.userID = userID
	t.sessionStart = now
	t.lastActivity = now
	t.state = StateActive

	if t.stopChan == nil {
		t.stopChan = make(chan struct{})
		go t.loop(t.stopChan)
	}
	t.mu.Unlock()

	log.Printf("session tracker: started for user %s", userID)
}

// End flushes any pending interval and returns the tracker to inactive.
// The flush is best effort; End never blocks on a slow backend beyond the
// sync call itself.
func (t *Tracker) End(ctx context.Context) {
	t.mu.Lock()
	if t.state != StateInactive {
		t.flushLocked(ctx)
	}
	t.state = StateInactive
	t.userID = uuid.Nil

	if t.stopChan != nil {
		close(t.stopChan)
		t.stopChan = nil
	}
	t.mu.Unlock()

	log.Printf("session tracker: ended")
}

// Touch records a user interaction (pointer move, key press, scroll, ...).
// From idle it re-enters active counting with a fresh session start so the
// idle gap is never counted.
func (t *Tracker) Touch() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == StateInactive {
		return
	}

	now := t.now()
	t.lastActivity = now
	if t.state == StateIdle {
		t.sessionStart = now
		t.state = StateActive
	}
}

// Hide handles the page going invisible: flush what we have and stop
// counting without waiting for the inactivity threshold.
func (t *Tracker) Hide(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == StateActive {
		t.flushLocked(ctx)
		t.state = StateIdle
	}
}

// Show handles the page becoming visible again.
func (t *Tracker) Show() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == StateIdle {
		t.sessionStart = t.now()
		t.lastActivity = t.sessionStart
		t.state = StateActive
	}
}

// CurrentSessionMinutes returns the whole minutes accumulated since the
// last successful flush, or 0 when not actively counting.
func (t *Tracker) CurrentSessionMinutes() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateActive {
		return 0
	}
	return int(t.now().Sub(t.sessionStart).Minutes())
}

func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tracker) loop(stop chan struct{}) {
	ticker := time.NewTicker(t.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.checkActivityAndSync(context.Background())
		}
	}
}

// checkActivityAndSync is the periodic tick: flush accumulated time, and
// demote to idle when the user has been quiet past the threshold.
func (t *Tracker) checkActivityAndSync(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateActive {
		return
	}

	t.flushLocked(ctx)

	if t.now().Sub(t.lastActivity) > t.inactivityThreshold {
		t.state = StateIdle
		log.Printf("session tracker: user %s idle, pausing count", t.userID)
	}
}

// flushLocked reports the elapsed whole minutes since sessionStart. Sub-minute
// intervals are skipped entirely: no network call and no reset, so short
// bursts coalesce into the next flush. On success the session start moves
// forward so the same interval is never reported twice; on failure it stays
// put and the pending interval rides along with the next attempt.
func (t *Tracker) flushLocked(ctx context.Context) {
	if t.userID == uuid.Nil || t.sessionStart.IsZero() {
		return
	}

	now := t.now()
	minutes := int(now.Sub(t.sessionStart).Minutes())
	if minutes < 1 {
		return
	}

	if err := t.syncFn(ctx, t.userID, minutes, now); err != nil {
		log.Printf("session tracker: sync failed for user %s (%d min pending): %v", t.userID, minutes, err)
		return
	}

	t.sessionStart = now
}
