package models

import "time"

// Reminder is a persisted notification that fires at FireAt and optionally repeats.
type Reminder struct {
	ID           int64     `json:"id"`           // Primary key
	ChatRef      int64     `json:"chatRef"`      // telegram_chats.id of the owner
	TelegramID   int64     `json:"telegramID"`   // Owner's chat identifier, filled by joins
	FireAt       time.Time `json:"fireAt"`       // Target fire timestamp (UTC)
	Message      string    `json:"message"`      // Optional free text
	RepeatCount  int       `json:"repeatCount"`  // 0 = no repeat, else remaining occurrences
	RepeatPeriod int       `json:"repeatPeriod"` // Minutes between repeats
	Done         bool      `json:"done"`         // Delivered and exhausted
	Processing   bool      `json:"processing"`   // Claimed by an in-flight delivery
	CreatedAt    time.Time `json:"createdAt"`    // Creation timestamp (UTC)
}

// Repeating reports whether the reminder goes through the repeat-delivery path.
func (r Reminder) Repeating() bool {
	return r.RepeatCount > 0
}

// NewReminder holds everything needed to persist a reminder for a chat.
type NewReminder struct {
	TelegramID   int64
	FireAt       time.Time
	Message      string
	RepeatCount  int
	RepeatPeriod int
}
