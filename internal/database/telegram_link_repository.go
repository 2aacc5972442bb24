package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// TelegramLinkRepository maps learners to Telegram chats
type TelegramLinkRepository struct {
	db *sqlx.DB
}

// NewTelegramLinkRepository creates a new repository instance
func NewTelegramLinkRepository(db *sqlx.DB) *TelegramLinkRepository {
	return &TelegramLinkRepository{db: db}
}

// Link points userID at chatID, replacing any earlier chat
func (r *TelegramLinkRepository) Link(ctx context.Context, userID string, chatID int64) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO telegram_links (user_id, chat_id) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET chat_id = EXCLUDED.chat_id
	`), userID, chatID)
	if err != nil {
		return fmt.Errorf("failed to link telegram chat: %w", err)
	}
	return nil
}

// ChatID returns the chat linked to userID; ok is false when there is none
func (r *TelegramLinkRepository) ChatID(ctx context.Context, userID string) (chatID int64, ok bool, err error) {
	err = r.db.GetContext(ctx, &chatID, r.db.Rebind("SELECT chat_id FROM telegram_links WHERE user_id = ?"), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get telegram chat: %w", err)
	}
	return chatID, true, nil
}

// UserID returns the learner linked to chatID; ok is false when there is none
func (r *TelegramLinkRepository) UserID(ctx context.Context, chatID int64) (userID string, ok bool, err error) {
	err = r.db.GetContext(ctx, &userID, r.db.Rebind("SELECT user_id FROM telegram_links WHERE chat_id = ? ORDER BY created_at DESC LIMIT 1"), chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get telegram link: %w", err)
	}
	return userID, true, nil
}
