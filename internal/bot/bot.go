package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/ieltsprep/internal/logger"
	"github.com/example/ieltsprep/internal/progress"
)

// sender is the part of *tgbotapi.BotAPI the bot talks through
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// LinkStore maps learners to Telegram chats
type LinkStore interface {
	Link(ctx context.Context, userID string, chatID int64) error
	ChatID(ctx context.Context, userID string) (int64, bool, error)
	UserID(ctx context.Context, chatID int64) (string, bool, error)
}

// ReportSource builds progress reports
type ReportSource interface {
	Report(ctx context.Context, userID string) (*progress.Report, error)
}

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// Bot represents the Telegram bot application
type Bot struct {
	api     sender
	client  *tgbotapi.BotAPI
	token   string
	links   LinkStore
	reports ReportSource
	log     *logger.Logger
}

// New creates a new bot instance. Call Connect before Run or any notification.
func New(token string, links LinkStore, reports ReportSource, log *logger.Logger) (*Bot, error) {
	if token == "" {
		return nil, errors.New("telegram bot token is not set")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Bot{
		token:   token,
		links:   links,
		reports: reports,
		log:     log.With("component", "TelegramBot"),
	}, nil
}

// Connect authorizes against the Telegram API
func (b *Bot) Connect() error {
	botAPI, err := tgbotapi.NewBotAPI(b.token)
	if err != nil {
		return fmt.Errorf("unable to create bot: %w", err)
	}
	b.client = botAPI
	b.api = botAPI
	b.log.Info("Authorized on account", "username", botAPI.Self.UserName)
	return nil
}

// Run handles incoming updates until ctx is cancelled
func (b *Bot) Run(ctx context.Context) error {
	if b.client == nil {
		return errors.New("bot is not connected")
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.client.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.client.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.Message != nil:
		b.reply(update.Message.Chat.ID, "I only understand commands. Use /help to see them.")
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(msg tgbotapi.MessageConfig) {
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn("Send failed", "error", err, "chat_id", msg.ChatID)
	}
}
