package services

import (
	"testing"
	"time"
)

func TestShouldSendByLastSent(t *testing.T) {
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	if !shouldSendByLastSent("", 20*time.Hour, now) {
		t.Fatalf("expected empty last-sent value to allow sending")
	}

	if !shouldSendByLastSent("not-a-date", 20*time.Hour, now) {
		t.Fatalf("expected invalid timestamp to allow sending")
	}

	recent := now.Add(-2 * time.Hour).Format(time.RFC3339)
	if shouldSendByLastSent(recent, 20*time.Hour, now) {
		t.Fatalf("expected recent send timestamp to block sending")
	}

	old := now.Add(-48 * time.Hour).Format(time.RFC3339)
	if !shouldSendByLastSent(old, 20*time.Hour, now) {
		t.Fatalf("expected old send timestamp to allow sending")
	}
}
