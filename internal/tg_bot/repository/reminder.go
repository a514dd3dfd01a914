package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/models"
	"time"
)

const reminderColumns = `r.id, r.telegram_chat_id, c.telegram_id, r.fire_at, r.message,
	r.repeat_count, r.repeat_period, r.done, r.processing, r.created_at`

const reminderFrom = ` FROM reminders r JOIN telegram_chats c ON c.id = r.telegram_chat_id`

func scanReminder(row interface{ Scan(...any) error }) (models.Reminder, error) {
	var r models.Reminder
	err := row.Scan(&r.ID, &r.ChatRef, &r.TelegramID, &r.FireAt, &r.Message,
		&r.RepeatCount, &r.RepeatPeriod, &r.Done, &r.Processing, &r.CreatedAt)
	return r, err
}

// CreateReminder persists a reminder for the chat nr.TelegramID.
func (s *Storage) CreateReminder(ctx context.Context, nr models.NewReminder) (models.Reminder, error) {
	ref, err := s.chatRef(ctx, nr.TelegramID)
	if err != nil {
		return models.Reminder{}, err
	}
	r := models.Reminder{
		ChatRef:      ref,
		TelegramID:   nr.TelegramID,
		FireAt:       dbTime(nr.FireAt),
		Message:      nr.Message,
		RepeatCount:  nr.RepeatCount,
		RepeatPeriod: nr.RepeatPeriod,
		CreatedAt:    dbTime(s.now()),
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reminders (telegram_chat_id, fire_at, message, repeat_count, repeat_period, done, processing, created_at)
		VALUES (?, ?, ?, ?, ?, 0, 0, ?)`,
		r.ChatRef, r.FireAt, r.Message, r.RepeatCount, r.RepeatPeriod, r.CreatedAt)
	if err != nil {
		return models.Reminder{}, fmt.Errorf("insert reminder: %w", err)
	}
	if r.ID, err = res.LastInsertId(); err != nil {
		return models.Reminder{}, fmt.Errorf("insert reminder: %w", err)
	}
	return r, nil
}

// DueReminders returns reminders with fire_at <= now that are neither done
// nor claimed, oldest first.
func (s *Storage) DueReminders(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reminderColumns+reminderFrom+`
		WHERE r.fire_at <= ? AND r.done = 0 AND r.processing = 0
		ORDER BY r.fire_at, r.id`, dbTime(now))
	if err != nil {
		return nil, fmt.Errorf("select due reminders: %w", err)
	}
	defer rows.Close()

	var due []models.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		due = append(due, r)
	}
	return due, rows.Err()
}

// ReminderByID returns models.ErrReminderNotFound for an unknown id.
func (s *Storage) ReminderByID(ctx context.Context, id int64) (models.Reminder, error) {
	r, err := scanReminder(s.db.QueryRowContext(ctx, `SELECT `+reminderColumns+reminderFrom+` WHERE r.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Reminder{}, models.ErrReminderNotFound
	}
	if err != nil {
		return models.Reminder{}, fmt.Errorf("select reminder %d: %w", id, err)
	}
	return r, nil
}

// ClaimReminder sets the processing flag if nobody holds it. The check and the
// write are one statement, so of two concurrent callers exactly one gets true.
func (s *Storage) ClaimReminder(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET processing = 1 WHERE id = ? AND processing = 0 AND done = 0`, id)
	if err != nil {
		return false, fmt.Errorf("claim reminder %d: %w", id, err)
	}
	return rowsAffected(res)
}

// DecrementRepeat atomically decrements repeat_count and returns the value
// read back after the update.
func (s *Storage) DecrementRepeat(ctx context.Context, id int64) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin decrement %d: %w", id, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx,
		`UPDATE reminders SET repeat_count = repeat_count - 1 WHERE id = ? AND repeat_count > 0`, id); err != nil {
		return 0, fmt.Errorf("decrement reminder %d: %w", id, err)
	}
	var remaining int
	err = tx.QueryRowContext(ctx, `SELECT repeat_count FROM reminders WHERE id = ?`, id).Scan(&remaining)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, models.ErrReminderNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("read back reminder %d: %w", id, err)
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit decrement %d: %w", id, err)
	}
	return remaining, nil
}

// RestoreRepeat gives back one occurrence taken by DecrementRepeat.
func (s *Storage) RestoreRepeat(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET repeat_count = repeat_count + 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("restore repeat of reminder %d: %w", id, err)
	}
	return nil
}

// ReleaseReminder clears the processing flag so the next scan can pick the
// reminder up again.
func (s *Storage) ReleaseReminder(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET processing = 0 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("release reminder %d: %w", id, err)
	}
	return nil
}

// MarkReminderDone finishes a reminder and clears its claim.
func (s *Storage) MarkReminderDone(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET done = 1, processing = 0 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark reminder %d done: %w", id, err)
	}
	return nil
}

// ReleaseStaleClaims clears processing on every unfinished reminder. It is
// meant for startup, when no delivery of this process can be in flight.
// Returns the number of released reminders.
func (s *Storage) ReleaseStaleClaims(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET processing = 0 WHERE processing = 1 AND done = 0`)
	if err != nil {
		return 0, fmt.Errorf("release stale claims: %w", err)
	}
	return res.RowsAffected()
}
