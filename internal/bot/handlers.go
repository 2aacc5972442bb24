package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/ieltsprep/internal/progress"
)

const (
	callbackProgress = "progress"
	callbackHelp     = "help"

	helpText = "IELTS practice bot\n\n" +
		"/start <your-user-id> links this chat to your account\n" +
		"/progress shows your progress report\n" +
		"/help shows this message\n\n" +
		"Once linked you get a daily reminder while your study streak is alive, " +
		"and a message whenever a teacher grades one of your tests."
)

var menu = [][]MenuButton{
	{{Text: "📊 My progress", CallbackData: callbackProgress}},
	{{Text: "❓ Help", CallbackData: callbackHelp}},
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStartCommand(ctx, message)
	case "progress":
		b.sendProgress(ctx, message.Chat.ID)
	case "help":
		b.sendHelp(message.Chat.ID)
	default:
		b.reply(message.Chat.ID, "Unknown command. Use /help to see what I can do.")
	}
}

// handleStartCommand links the chat to the learner id given as argument
func (b *Bot) handleStartCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	userID := strings.TrimSpace(message.CommandArguments())
	if userID == "" {
		b.reply(chatID, "Welcome! Send /start <your-user-id> to link this chat to your IELTS practice account.")
		return
	}

	if err := b.links.Link(ctx, userID, chatID); err != nil {
		b.log.Error("Link failed", "error", err, "user_id", userID, "chat_id", chatID)
		b.reply(chatID, "❌ Could not link your account. Please try again later.")
		return
	}
	b.log.Info("Chat linked", "user_id", userID, "chat_id", chatID)

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("✅ Linked to %s. You will get streak reminders and grading updates here.", userID))
	msg.ReplyMarkup = createKeyboard(menu)
	b.send(msg)
}

func (b *Bot) sendProgress(ctx context.Context, chatID int64) {
	userID, ok, err := b.links.UserID(ctx, chatID)
	if err != nil {
		b.log.Error("Link lookup failed", "error", err, "chat_id", chatID)
		b.reply(chatID, "❌ Something went wrong. Please try again later.")
		return
	}
	if !ok {
		b.reply(chatID, "This chat is not linked yet. Send /start <your-user-id> first.")
		return
	}

	report, err := b.reports.Report(ctx, userID)
	switch {
	case errors.Is(err, progress.ErrNoData):
		b.reply(chatID, "No test results yet. Finish a practice test to see your progress.")
	case err != nil:
		b.log.Error("Report failed", "error", err, "user_id", userID)
		b.reply(chatID, "❌ Could not build your report. Please try again later.")
	default:
		b.reply(chatID, report.Summary())
	}
}

func (b *Bot) sendHelp(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, helpText)
	msg.ReplyMarkup = createKeyboard(menu)
	b.send(msg)
}

func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.log.Warn("Callback ack failed", "error", err)
	}
	if callback.Message == nil {
		return
	}

	chatID := callback.Message.Chat.ID
	switch callback.Data {
	case callbackProgress:
		b.sendProgress(ctx, chatID)
	case callbackHelp:
		b.sendHelp(chatID)
	}
}
