package streak

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDayOf(t *testing.T) {
	ts := time.Date(2024, 1, 11, 23, 45, 12, 0, time.UTC)
	if got := DayOf(ts, time.UTC); !got.Equal(day(2024, 1, 11)) {
		t.Errorf("Expected 2024-01-11, got %v", got)
	}

	// A late-evening UTC timestamp falls on the next day in a UTC+9 zone
	tokyo := time.FixedZone("UTC+9", 9*3600)
	if got := DayOf(ts, tokyo); got.Day() != 12 {
		t.Errorf("Expected day 12 in UTC+9, got %v", got)
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name     string
		from, to time.Time
		expected int
	}{
		{"same day", day(2024, 1, 10), day(2024, 1, 10), 0},
		{"next day", day(2024, 1, 10), day(2024, 1, 11), 1},
		{"four days", day(2024, 1, 10), day(2024, 1, 14), 4},
		{"backwards", day(2024, 1, 10), day(2024, 1, 9), -1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DaysBetween(tc.from, tc.to); got != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestDaysBetween_AcrossDSTTransition(t *testing.T) {
	// America/New_York springs forward on 2025-03-09: that local day is only
	// 23 hours long, so wall-clock subtraction undercounts the day delta.
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}

	mar8 := DayOf(time.Date(2025, 3, 8, 12, 0, 0, 0, ny), ny)
	mar9 := DayOf(time.Date(2025, 3, 9, 12, 0, 0, 0, ny), ny)
	mar10 := DayOf(time.Date(2025, 3, 10, 12, 0, 0, 0, ny), ny)

	if got := DaysBetween(mar9, mar10); got != 1 {
		t.Errorf("Expected 1 day across spring-forward, got %d", got)
	}
	if got := DaysBetween(mar8, mar10); got != 2 {
		t.Errorf("Expected 2 days across spring-forward, got %d", got)
	}

	// Consecutive-day credit must survive the short day
	start := DayOf(time.Date(2025, 3, 5, 0, 0, 0, 0, ny), ny)
	streak, _ := Advance(5, &start, &mar9, mar10)
	if streak != 6 {
		t.Errorf("Expected streak 6 across spring-forward, got %d", streak)
	}

	// A two-day gap over the transition still resets and still reads stale
	streak, newStart := Advance(5, &start, &mar8, mar10)
	if streak != 1 {
		t.Errorf("Expected streak reset across spring-forward gap, got %d", streak)
	}
	if newStart == nil || !newStart.Equal(mar10) {
		t.Errorf("Expected streak start %v, got %v", mar10, newStart)
	}
	if !Stale(mar8, mar10) {
		t.Errorf("Expected two-day gap across spring-forward to be stale")
	}
}

func TestAdvance_FirstSession(t *testing.T) {
	today := day(2024, 1, 11)
	streak, start := Advance(0, nil, nil, today)
	if streak != 1 {
		t.Errorf("Expected streak 1, got %d", streak)
	}
	if start == nil || !start.Equal(today) {
		t.Errorf("Expected streak start %v, got %v", today, start)
	}
}

func TestAdvance_SameDayKeepsStreak(t *testing.T) {
	today := day(2024, 1, 11)
	start := day(2024, 1, 7)

	streak, newStart := Advance(5, &start, &today, today)
	if streak != 5 {
		t.Errorf("Expected streak to stay 5, got %d", streak)
	}
	if newStart == nil || !newStart.Equal(start) {
		t.Errorf("Expected streak start unchanged, got %v", newStart)
	}
}

func TestAdvance_ConsecutiveDayIncrements(t *testing.T) {
	last := day(2024, 1, 10)
	today := day(2024, 1, 11)
	start := day(2024, 1, 6)

	streak, newStart := Advance(5, &start, &last, today)
	if streak != 6 {
		t.Errorf("Expected streak 6, got %d", streak)
	}
	if newStart == nil || !newStart.Equal(start) {
		t.Errorf("Expected streak start unchanged, got %v", newStart)
	}
}

func TestAdvance_GapResets(t *testing.T) {
	last := day(2024, 1, 10)
	today := day(2024, 1, 15)
	start := day(2024, 1, 6)

	streak, newStart := Advance(5, &start, &last, today)
	if streak != 1 {
		t.Errorf("Expected streak reset to 1, got %d", streak)
	}
	if newStart == nil || !newStart.Equal(today) {
		t.Errorf("Expected streak start %v, got %v", today, newStart)
	}
}

func TestAdvance_ClockSkewTreatedAsSameDay(t *testing.T) {
	// Stored last-study day is ahead of today (multi-device clock skew)
	last := day(2024, 1, 12)
	today := day(2024, 1, 11)
	start := day(2024, 1, 8)

	streak, newStart := Advance(5, &start, &last, today)
	if streak != 5 {
		t.Errorf("Expected streak unchanged on negative day delta, got %d", streak)
	}
	if newStart == nil || !newStart.Equal(start) {
		t.Errorf("Expected streak start unchanged, got %v", newStart)
	}
}

func TestStale(t *testing.T) {
	today := day(2024, 1, 11)

	tests := []struct {
		name     string
		lastDay  time.Time
		expected bool
	}{
		{"studied today", day(2024, 1, 11), false},
		{"studied yesterday", day(2024, 1, 10), false},
		{"two days ago", day(2024, 1, 9), true},
		{"a week ago", day(2024, 1, 4), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Stale(tc.lastDay, today); got != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, got)
			}
		})
	}
}
