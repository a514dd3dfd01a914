package models

import "time"

// DefaultTodoCategory is used when a todo is created without a category.
const DefaultTodoCategory = "No category"

// Todo is a persisted checklist item owned by a chat.
type Todo struct {
	ID         int64     `json:"id"`
	ChatRef    int64     `json:"chatRef"`
	TelegramID int64     `json:"telegramID"`
	Message    string    `json:"message"`
	Category   string    `json:"category"`
	Done       bool      `json:"done"`
	CreatedAt  time.Time `json:"createdAt"`
}

// BatchResult reports an id-addressed batch operation per id.
type BatchResult struct {
	Succeeded []int64  // Ids the operation applied to
	NotFound  []int64  // Ids missing or owned by another chat
	Invalid   []string // Arguments that are not ids at all
}
