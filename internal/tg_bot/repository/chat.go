package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/models"
	"github.com/sirupsen/logrus"
)

// EnsureChat returns the chat with telegramID, creating it when missing.
// Username and full name are refreshed on every call.
// Arguments:
//   - telegramID: the chat identifier on Telegram's side.
//   - username, fullName: cache fields taken from the latest message.
//
// Returns the chat, whether it was created by this call, and an error if any.
func (s *Storage) EnsureChat(ctx context.Context, telegramID int64, username, fullName string) (models.TelegramChat, bool, error) {
	chat, err := s.ChatByTelegramID(ctx, telegramID)
	switch {
	case err == nil:
		_, err = s.db.ExecContext(ctx,
			`UPDATE telegram_chats SET telegram_username = ?, full_name = ? WHERE id = ?`,
			username, fullName, chat.ID)
		if err != nil {
			return models.TelegramChat{}, false, fmt.Errorf("refresh chat %d: %w", telegramID, err)
		}
		chat.Username, chat.FullName = username, fullName
		return chat, false, nil
	case !errors.Is(err, models.ErrChatNotFound):
		return models.TelegramChat{}, false, err
	}

	chat = models.TelegramChat{
		TelegramID: telegramID,
		Username:   username,
		FullName:   fullName,
		DateJoined: dbTime(s.now()),
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO telegram_chats (telegram_id, telegram_username, full_name, date_joined) VALUES (?, ?, ?, ?)`,
		chat.TelegramID, chat.Username, chat.FullName, chat.DateJoined)
	if err != nil {
		return models.TelegramChat{}, false, fmt.Errorf("insert chat %d: %w", telegramID, err)
	}
	if chat.ID, err = res.LastInsertId(); err != nil {
		return models.TelegramChat{}, false, fmt.Errorf("insert chat %d: %w", telegramID, err)
	}
	logrus.Infof("New telegram chat %d registered", telegramID)
	return chat, true, nil
}

// ChatByTelegramID returns models.ErrChatNotFound for an unknown chat.
func (s *Storage) ChatByTelegramID(ctx context.Context, telegramID int64) (models.TelegramChat, error) {
	var chat models.TelegramChat
	err := s.db.QueryRowContext(ctx,
		`SELECT id, telegram_id, telegram_username, full_name, date_joined FROM telegram_chats WHERE telegram_id = ?`,
		telegramID).Scan(&chat.ID, &chat.TelegramID, &chat.Username, &chat.FullName, &chat.DateJoined)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TelegramChat{}, models.ErrChatNotFound
	}
	if err != nil {
		return models.TelegramChat{}, fmt.Errorf("select chat %d: %w", telegramID, err)
	}
	return chat, nil
}

// chatRef resolves the primary key of a chat, registering chats that never
// sent /start.
func (s *Storage) chatRef(ctx context.Context, telegramID int64) (int64, error) {
	chat, err := s.ChatByTelegramID(ctx, telegramID)
	if errors.Is(err, models.ErrChatNotFound) {
		chat, _, err = s.EnsureChat(ctx, telegramID, "", "")
	}
	if err != nil {
		return 0, err
	}
	return chat.ID, nil
}
