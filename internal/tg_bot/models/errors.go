package models

import "errors"

var (
	ErrReminderNotFound = errors.New("reminder not found")
	ErrTodoNotFound     = errors.New("todo not found")
	ErrChatNotFound     = errors.New("telegram chat not found")
)
