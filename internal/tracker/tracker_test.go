package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type syncCall struct {
	userID  uuid.UUID
	minutes int
}

type fakeBackend struct {
	calls []syncCall
	err   error
}

func (f *fakeBackend) sync(ctx context.Context, userID uuid.UUID, minutes int, ts time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, syncCall{userID: userID, minutes: minutes})
	return nil
}

// newTestTracker returns a tracker with a controllable clock. The returned
// advance function moves the fake clock forward.
func newTestTracker(backend *fakeBackend) (*Tracker, func(d time.Duration)) {
	current := time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC)
	tr := New(backend.sync, DefaultInactivityThreshold, DefaultSyncInterval)
	tr.now = func() time.Time { return current }
	return tr, func(d time.Duration) { current = current.Add(d) }
}

func TestFlush_SubMinuteIsSkipped(t *testing.T) {
	backend := &fakeBackend{}
	tr, advance := newTestTracker(backend)
	userID := uuid.New()

	tr.Start(userID)
	defer tr.End(context.Background())

	advance(30 * time.Second)
	start := tr.sessionStart
	tr.checkActivityAndSync(context.Background())

	if len(backend.calls) != 0 {
		t.Fatalf("Expected no sync call for sub-minute interval, got %d", len(backend.calls))
	}
	if !tr.sessionStart.Equal(start) {
		t.Error("Expected session start unchanged after skipped flush")
	}
}

func TestFlush_ReportsWholeMinutesAndResets(t *testing.T) {
	backend := &fakeBackend{}
	tr, advance := newTestTracker(backend)
	userID := uuid.New()

	tr.Start(userID)
	defer tr.End(context.Background())

	advance(3 * time.Minute)
	tr.Touch()
	tr.checkActivityAndSync(context.Background())

	if len(backend.calls) != 1 {
		t.Fatalf("Expected 1 sync call, got %d", len(backend.calls))
	}
	if backend.calls[0].minutes != 3 {
		t.Errorf("Expected 3 minutes reported, got %d", backend.calls[0].minutes)
	}
	if backend.calls[0].userID != userID {
		t.Errorf("Expected user %s, got %s", userID, backend.calls[0].userID)
	}

	// The next interval starts fresh: another 2 minutes reports 2, not 5
	advance(2 * time.Minute)
	tr.Touch()
	tr.checkActivityAndSync(context.Background())

	if len(backend.calls) != 2 || backend.calls[1].minutes != 2 {
		t.Fatalf("Expected second flush to report 2 minutes, got %+v", backend.calls)
	}
}

func TestFlush_FailureKeepsPendingInterval(t *testing.T) {
	backend := &fakeBackend{err: errors.New("backend down")}
	tr, advance := newTestTracker(backend)

	tr.Start(uuid.New())
	defer tr.End(context.Background())

	// Flush at minute 3 fails
	advance(3 * time.Minute)
	tr.Touch()
	tr.checkActivityAndSync(context.Background())
	if len(backend.calls) != 0 {
		t.Fatal("Expected no recorded call while backend is failing")
	}

	// Backend recovers; flush at minute 7 reports the full combined interval
	backend.err = nil
	advance(4 * time.Minute)
	tr.Touch()
	tr.checkActivityAndSync(context.Background())

	if len(backend.calls) != 1 {
		t.Fatalf("Expected 1 sync call after recovery, got %d", len(backend.calls))
	}
	if backend.calls[0].minutes != 7 {
		t.Errorf("Expected 7 combined minutes, got %d", backend.calls[0].minutes)
	}
}

func TestInactivity_DemotesToIdleAndIdleTimeIsNotCounted(t *testing.T) {
	backend := &fakeBackend{}
	tr, advance := newTestTracker(backend)

	tr.Start(uuid.New())
	defer tr.End(context.Background())

	// 2 active minutes, then the user walks away past the threshold
	advance(2 * time.Minute)
	tr.Touch()
	advance(6 * time.Minute)
	tr.checkActivityAndSync(context.Background())

	if tr.State() != StateIdle {
		t.Fatalf("Expected idle state after inactivity, got %v", tr.State())
	}
	if len(backend.calls) != 1 || backend.calls[0].minutes != 8 {
		t.Fatalf("Expected final flush before idle, got %+v", backend.calls)
	}

	// 30 idle minutes pass, then activity resumes: the gap must not count
	advance(30 * time.Minute)
	tr.Touch()
	if tr.State() != StateActive {
		t.Fatal("Expected activity to re-enter active state")
	}

	advance(1 * time.Minute)
	tr.checkActivityAndSync(context.Background())

	last := backend.calls[len(backend.calls)-1]
	if last.minutes != 1 {
		t.Errorf("Expected 1 minute after idle gap, got %d", last.minutes)
	}
}

func TestVisibility_HideFlushesAndShowResumes(t *testing.T) {
	backend := &fakeBackend{}
	tr, advance := newTestTracker(backend)

	tr.Start(uuid.New())
	defer tr.End(context.Background())

	advance(2 * time.Minute)
	tr.Hide(context.Background())

	if tr.State() != StateIdle {
		t.Fatalf("Expected idle after hide, got %v", tr.State())
	}
	if len(backend.calls) != 1 || backend.calls[0].minutes != 2 {
		t.Fatalf("Expected hide to flush 2 minutes, got %+v", backend.calls)
	}

	// Tab hidden for an hour, then shown again
	advance(1 * time.Hour)
	tr.Show()
	if tr.State() != StateActive {
		t.Fatal("Expected active after show")
	}

	advance(1 * time.Minute)
	tr.checkActivityAndSync(context.Background())
	last := backend.calls[len(backend.calls)-1]
	if last.minutes != 1 {
		t.Errorf("Expected hidden hour to be excluded, got %d minutes", last.minutes)
	}
}

func TestEnd_FlushesAndClears(t *testing.T) {
	backend := &fakeBackend{}
	tr, advance := newTestTracker(backend)

	tr.Start(uuid.New())
	advance(4 * time.Minute)
	tr.End(context.Background())

	if len(backend.calls) != 1 || backend.calls[0].minutes != 4 {
		t.Fatalf("Expected end to flush 4 minutes, got %+v", backend.calls)
	}
	if tr.State() != StateInactive {
		t.Errorf("Expected inactive after end, got %v", tr.State())
	}
	if tr.CurrentSessionMinutes() != 0 {
		t.Error("Expected zero current session minutes after end")
	}
}

func TestCurrentSessionMinutes(t *testing.T) {
	backend := &fakeBackend{}
	tr, advance := newTestTracker(backend)

	if tr.CurrentSessionMinutes() != 0 {
		t.Error("Expected 0 before start")
	}

	tr.Start(uuid.New())
	defer tr.End(context.Background())

	advance(150 * time.Second)
	if got := tr.CurrentSessionMinutes(); got != 2 {
		t.Errorf("Expected floor to 2 minutes, got %d", got)
	}
}
