package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/models"
	"strings"
)

const todoSelect = `SELECT t.id, t.telegram_chat_id, c.telegram_id, t.message, t.category, t.done, t.created_at
	FROM todos t JOIN telegram_chats c ON c.id = t.telegram_chat_id`

func scanTodo(row interface{ Scan(...any) error }) (models.Todo, error) {
	var t models.Todo
	err := row.Scan(&t.ID, &t.ChatRef, &t.TelegramID, &t.Message, &t.Category, &t.Done, &t.CreatedAt)
	return t, err
}

// CreateTodo persists an open todo. An empty category becomes models.DefaultTodoCategory.
func (s *Storage) CreateTodo(ctx context.Context, telegramID int64, message, category string) (models.Todo, error) {
	if strings.TrimSpace(category) == "" {
		category = models.DefaultTodoCategory
	}
	ref, err := s.chatRef(ctx, telegramID)
	if err != nil {
		return models.Todo{}, err
	}
	t := models.Todo{
		ChatRef:    ref,
		TelegramID: telegramID,
		Message:    message,
		Category:   category,
		CreatedAt:  dbTime(s.now()),
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO todos (telegram_chat_id, message, category, done, created_at) VALUES (?, ?, ?, 0, ?)`,
		t.ChatRef, t.Message, t.Category, t.CreatedAt)
	if err != nil {
		return models.Todo{}, fmt.Errorf("insert todo: %w", err)
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return models.Todo{}, fmt.Errorf("insert todo: %w", err)
	}
	return t, nil
}

// TodosByChat lists the todos of a chat, newest first and then by category.
// An empty category lists all of them.
func (s *Storage) TodosByChat(ctx context.Context, telegramID int64, category string) ([]models.Todo, error) {
	query := todoSelect + ` WHERE c.telegram_id = ?`
	args := []any{telegramID}
	if category != "" {
		query += ` AND t.category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY t.created_at DESC, t.category ASC, t.id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select todos of chat %d: %w", telegramID, err)
	}
	defer rows.Close()

	var todos []models.Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

// OpenCategories returns each category of the chat's not done todos once,
// in the order they were first used.
func (s *Storage) OpenCategories(ctx context.Context, telegramID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.category FROM todos t JOIN telegram_chats c ON c.id = t.telegram_chat_id
		WHERE c.telegram_id = ? AND t.done = 0
		ORDER BY t.created_at ASC, t.id ASC`, telegramID)
	if err != nil {
		return nil, fmt.Errorf("select categories of chat %d: %w", telegramID, err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	var categories []string
	for rows.Next() {
		var category string
		if err = rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		if _, ok := seen[category]; ok {
			continue
		}
		seen[category] = struct{}{}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// TodoByID returns models.ErrTodoNotFound for an unknown id.
func (s *Storage) TodoByID(ctx context.Context, id int64) (models.Todo, error) {
	t, err := scanTodo(s.db.QueryRowContext(ctx, todoSelect+` WHERE t.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Todo{}, models.ErrTodoNotFound
	}
	if err != nil {
		return models.Todo{}, fmt.Errorf("select todo %d: %w", id, err)
	}
	return t, nil
}

// SetTodoDone updates the done flag of one todo.
func (s *Storage) SetTodoDone(ctx context.Context, id int64, done bool) error {
	flag := 0
	if done {
		flag = 1
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE todos SET done = ? WHERE id = ?`, flag, id); err != nil {
		return fmt.Errorf("update todo %d: %w", id, err)
	}
	return nil
}

// DeleteTodo removes one todo by id.
func (s *Storage) DeleteTodo(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete todo %d: %w", id, err)
	}
	return nil
}

// MarkTodos marks the chat's todos ids as done. Ids that don't exist or
// belong to another chat are reported as not found, the rest still apply.
func (s *Storage) MarkTodos(ctx context.Context, telegramID int64, ids []int64) (models.BatchResult, error) {
	return s.batch(ctx, telegramID, ids, func(id int64) error {
		return s.SetTodoDone(ctx, id, true)
	})
}

// DeleteTodos removes the chat's todos ids with the same reporting as MarkTodos.
func (s *Storage) DeleteTodos(ctx context.Context, telegramID int64, ids []int64) (models.BatchResult, error) {
	return s.batch(ctx, telegramID, ids, func(id int64) error {
		return s.DeleteTodo(ctx, id)
	})
}

func (s *Storage) batch(ctx context.Context, telegramID int64, ids []int64, apply func(id int64) error) (models.BatchResult, error) {
	var result models.BatchResult
	for _, id := range ids {
		todo, err := s.TodoByID(ctx, id)
		if errors.Is(err, models.ErrTodoNotFound) || (err == nil && todo.TelegramID != telegramID) {
			result.NotFound = append(result.NotFound, id)
			continue
		}
		if err != nil {
			return result, err
		}
		if err = apply(id); err != nil {
			return result, err
		}
		result.Succeeded = append(result.Succeeded, id)
	}
	return result, nil
}
