package services

import (
	"context"
	"log"
	"time"

	"toex-backend/internal/repository"
	"toex-backend/internal/streak"
)

const (
	streakReminderLastSentKey = "streak_reminders_last_sent_at"
	streakReminderInterval    = 20 * time.Hour
	schedulerPollInterval     = 1 * time.Hour
)

// StreakScheduler runs the periodic streak maintenance: the sweep that
// zeroes lapsed streaks and the reminder emails for streaks at risk today.
type StreakScheduler struct {
	stats    *StatsService
	userRepo *repository.UserRepo
	email    *EmailService
	interval time.Duration
	stopChan chan struct{}
}

func NewStreakScheduler(stats *StatsService, userRepo *repository.UserRepo, email *EmailService, interval time.Duration) *StreakScheduler {
	if interval <= 0 {
		interval = schedulerPollInterval
	}
	return &StreakScheduler{
		stats:    stats,
		userRepo: userRepo,
		email:    email,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

func (s *StreakScheduler) Start() {
	if s.stats == nil {
		return
	}

	go s.loop(func(ctx context.Context, now time.Time) {
		s.sweepStreaks(ctx)
	})
	go s.loop(func(ctx context.Context, now time.Time) {
		s.sendStreakReminders(ctx, now)
	})

	log.Printf("Streak scheduler started (interval %s)", s.interval)
}

func (s *StreakScheduler) Stop() {
	select {
	case <-s.stopChan:
		return
	default:
		close(s.stopChan)
	}
}

func (s *StreakScheduler) loop(runFn func(ctx context.Context, now time.Time)) {
	// Run on startup as well as by interval.
	runFn(context.Background(), time.Now().UTC())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			runFn(context.Background(), time.Now().UTC())
		}
	}
}

func (s *StreakScheduler) sweepStreaks(ctx context.Context) {
	result, err := s.stats.ResetStaleStreaks(ctx)
	if err != nil {
		log.Printf("streak sweep: %v", err)
		return
	}
	if result.Reset > 0 || result.Failed > 0 {
		log.Printf("streak sweep: checked=%d reset=%d failed=%d", result.Checked, result.Reset, result.Failed)
	}
}

// sendStreakReminders emails users whose streak is intact but who have not
// studied yet today, so the streak is about to lapse at midnight.
func (s *StreakScheduler) sendStreakReminders(ctx context.Context, now time.Time) {
	if s.userRepo == nil || s.email == nil {
		return
	}

	recipients, err := s.userRepo.ListStreakReminderRecipients(ctx, "streak_reminders", streakReminderLastSentKey)
	if err != nil {
		log.Printf("streak reminders: failed to list recipients: %v", err)
		return
	}

	for _, recipient := range recipients {
		if !shouldSendByLastSent(recipient.LastSentAtRaw, streakReminderInterval, now) {
			continue
		}

		stats, statsErr := s.stats.GetStats(ctx, recipient.ID)
		if statsErr != nil {
			log.Printf("streak reminders: failed to load stats for user %s: %v", recipient.ID, statsErr)
			continue
		}

		// Already studied today, nothing at risk.
		today := streak.DayOf(now, s.stats.loc)
		if stats.LastStudyDate != nil && stats.LastStudyDate.Equal(today) {
			continue
		}

		if err := s.email.SendStreakReminderEmail(recipient.Email, recipient.DisplayName, recipient.Streak); err != nil {
			log.Printf("streak reminders: failed to send to %s: %v", recipient.Email, err)
			continue
		}

		if err := s.userRepo.SetNotificationTimestamp(ctx, recipient.ID, streakReminderLastSentKey, now); err != nil {
			log.Printf("streak reminders: failed to persist last sent at for user %s: %v", recipient.ID, err)
		}
	}
}

func shouldSendByLastSent(lastSentRaw string, minInterval time.Duration, now time.Time) bool {
	if lastSentRaw == "" {
		return true
	}

	lastSentAt, err := time.Parse(time.RFC3339, lastSentRaw)
	if err != nil {
		return true
	}

	return now.Sub(lastSentAt) >= minInterval
}
