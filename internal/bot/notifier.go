package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/ieltsprep/pkg/models"
)

// SendStreakReminder implements the scheduler.Notifier interface.
// Learners without a linked chat are skipped.
func (b *Bot) SendStreakReminder(ctx context.Context, userID string, streak int) error {
	chatID, ok, err := b.links.ChatID(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		b.log.Debug("No chat linked, reminder skipped", "user_id", userID)
		return nil
	}

	text := fmt.Sprintf("🔥 You are on a %d-day study streak! Take a practice test today to keep it going.", streak)
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("failed to send reminder: %w", err)
	}
	b.log.Debug("Streak reminder sent", "user_id", userID, "streak", streak)
	return nil
}

// ResultGraded tells the learner that a teacher graded one of their results
func (b *Bot) ResultGraded(ctx context.Context, result *models.TestResult, test *models.Test) error {
	chatID, ok, err := b.links.ChatID(ctx, result.UserID)
	if err != nil || !ok {
		return err
	}

	title := result.TestID
	if test != nil {
		title = test.Title
	}
	verdict := "not passed"
	if result.IsPassed {
		verdict = "passed"
	}

	var text strings.Builder
	fmt.Fprintf(&text, "📝 Your teacher graded %q: band %.1f (%s).", title, result.Score, verdict)
	if result.TeacherFeedback != "" {
		fmt.Fprintf(&text, "\n\nFeedback: %s", result.TeacherFeedback)
	}

	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text.String())); err != nil {
		return fmt.Errorf("failed to send grade notification: %w", err)
	}
	return nil
}
