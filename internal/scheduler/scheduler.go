package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/ieltsprep/internal/logger"
	"github.com/example/ieltsprep/pkg/models"
)

// Notifier interface for sending notifications
type Notifier interface {
	SendStreakReminder(ctx context.Context, userID string, streak int) error
}

// ProgressSource finds learners by the time of their last practice
type ProgressSource interface {
	GetStudiedBetween(ctx context.Context, from, to time.Time) ([]models.Progress, error)
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	profiles  ProgressSource
	loc       *time.Location
	hour      int
	log       *logger.Logger
	now       func() time.Time
}

// New creates a scheduler that sends streak reminders every day at hour, in loc.
func New(notifier Notifier, profiles ProgressSource, loc *time.Location, hour int, log *logger.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		notifier:  notifier,
		profiles:  profiles,
		loc:       loc,
		hour:      hour,
		log:       log.With("component", "Scheduler"),
		now:       time.Now,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	if s.hour < 0 || s.hour > 23 {
		return fmt.Errorf("reminder hour %d out of range", s.hour)
	}
	if _, err := s.scheduler.Every(1).Day().At(fmt.Sprintf("%02d:00", s.hour)).Do(s.sendStreakReminders); err != nil {
		return fmt.Errorf("failed to schedule reminders: %w", err)
	}

	s.scheduler.StartAsync()
	s.log.Info("Scheduler started", "reminder_hour", s.hour, "timezone", s.loc.String())
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) sendStreakReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	sent, err := s.RunReminders(ctx)
	if err != nil {
		s.log.Error("Streak reminders failed", "error", err)
		return
	}
	s.log.Info("Streak reminders sent", "count", sent)
}

// RunReminders messages every learner with a live streak who practiced
// yesterday but not yet today. It returns the number of reminders sent.
func (s *Scheduler) RunReminders(ctx context.Context) (int, error) {
	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	yesterday := today.AddDate(0, 0, -1)

	profiles, err := s.profiles.GetStudiedBetween(ctx, yesterday.UTC(), today.UTC())
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, p := range profiles {
		if p.StudyStreak <= 0 {
			continue
		}
		if err := s.notifier.SendStreakReminder(ctx, p.UserID, p.StudyStreak); err != nil {
			s.log.Warn("Streak reminder failed", "error", err, "user_id", p.UserID)
			continue
		}
		sent++
	}
	return sent, nil
}
