package models

import "time"

// TelegramChat is the identity record of a chat. Username and FullName are
// cache fields refreshed on every /start.
type TelegramChat struct {
	ID         int64     `json:"id"`
	TelegramID int64     `json:"telegramID"`
	Username   string    `json:"username"`
	FullName   string    `json:"fullName"`
	DateJoined time.Time `json:"dateJoined"`
}
