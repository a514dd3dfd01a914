package service

import (
	"context"
	"errors"
	"fmt"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/constant"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/datetime"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/dialog"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"strconv"
	"strings"
)

// remindDirect handles "/remindi day hour [minute] [message...]". The third
// argument is the minute only when it is a number, otherwise the message
// starts there. Message words are joined with single spaces.
func (b *TgBotServices) remindDirect(ctx context.Context, chatID int64, args string) dialog.Reply {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return dialog.Reply{Text: constant.TEXT_NO_ARGS}
	}
	day, err := strconv.Atoi(fields[0])
	if err != nil || day < 1 || day > 31 {
		return dialog.Reply{Text: constant.TEXT_BAD_DAY}
	}
	hour, rest := fields[1], fields[2:]
	minute := 0
	if len(rest) > 0 {
		if m, err := strconv.Atoi(rest[0]); err == nil {
			if m < 0 || m > 59 {
				return dialog.Reply{Text: constant.TEXT_BAD_MINUTE}
			}
			minute, rest = m, rest[1:]
		}
	}
	message := strings.Join(rest, " ")

	now := b.clock.Now().In(b.loc)
	fireAt, err := datetime.AssembleFuture(datetime.Fragments{Day: day, Hour: hour, Minute: minute}, now, b.loc)
	var fragErr *datetime.FragmentError
	switch {
	case errors.As(err, &fragErr):
		return dialog.Reply{Text: fmt.Sprintf(constant.TEXT_BAD_DATE, fields[0], hour, minute)}
	case errors.Is(err, datetime.ErrDateInPast):
		return dialog.Reply{Text: constant.TEXT_DATE_IN_FUTURE}
	case err != nil:
		logrus.WithError(err).Errorf("Failed to build date for chat %d", chatID)
		return dialog.Reply{Text: constant.TEXT_ERROR}
	}

	reminder, err := b.Storage.CreateReminder(ctx, models.NewReminder{TelegramID: chatID, FireAt: fireAt, Message: message})
	if err != nil {
		logrus.WithError(err).Errorf("Failed to create reminder for chat %d", chatID)
		return dialog.Reply{Text: constant.TEXT_ERROR}
	}
	logrus.Infof("Reminder %d created for chat %d", reminder.ID, chatID)
	return dialog.Reply{Text: dialog.Confirmation(fireAt, now, message)}
}

// addTodoDirect handles "/addtodoi [#category] message...".
func (b *TgBotServices) addTodoDirect(ctx context.Context, chatID int64, args string) dialog.Reply {
	fields := strings.Fields(args)
	category := ""
	if len(fields) > 0 && strings.HasPrefix(fields[0], "#") {
		category, fields = strings.TrimPrefix(fields[0], "#"), fields[1:]
	}
	if len(fields) == 0 {
		return dialog.Reply{Text: constant.TEXT_NO_ARGS}
	}

	todo, err := b.Storage.CreateTodo(ctx, chatID, strings.Join(fields, " "), category)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to create todo for chat %d", chatID)
		return dialog.Reply{Text: constant.TEXT_ERROR}
	}
	return dialog.TodoCreatedReply(todo)
}

// listTodos renders the chat's todos, optionally of one category.
func (b *TgBotServices) listTodos(ctx context.Context, chatID int64, category string) dialog.Reply {
	todos, err := b.Storage.TodosByChat(ctx, chatID, category)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to list todos of chat %d", chatID)
		return dialog.Reply{Text: constant.TEXT_ERROR}
	}
	if len(todos) == 0 {
		return dialog.Reply{Text: constant.TEXT_NO_TODOS}
	}

	var sb strings.Builder
	sb.WriteString(constant.TEXT_TODOS)
	for _, todo := range todos {
		mark := constant.EMOJI_WHITE_SQUARE
		if todo.Done {
			mark = constant.EMOJI_CHECK_MARK
		}
		fmt.Fprintf(&sb, "\n%s `%d` %s (%s)", mark, todo.ID,
			tgbotapi.EscapeText(tgbotapi.ModeMarkdown, todo.Message),
			tgbotapi.EscapeText(tgbotapi.ModeMarkdown, todo.Category))
	}
	return dialog.Reply{Text: sb.String(), Markdown: true}
}

type batchFunc func(ctx context.Context, telegramID int64, ids []int64) (models.BatchResult, error)

// batchTodos applies op to every id in args and summarizes the result per id.
func (b *TgBotServices) batchTodos(ctx context.Context, chatID int64, args string, op batchFunc, succeeded string) dialog.Reply {
	ids, invalid := parseIDs(args)
	if len(ids) == 0 && len(invalid) == 0 {
		return dialog.Reply{Text: constant.TEXT_NO_ARGS}
	}

	result := models.BatchResult{Invalid: invalid}
	if len(ids) > 0 {
		done, err := op(ctx, chatID, ids)
		if err != nil {
			logrus.WithError(err).Errorf("Batch todo operation failed for chat %d", chatID)
			return dialog.Reply{Text: constant.TEXT_ERROR}
		}
		result.Succeeded, result.NotFound = done.Succeeded, done.NotFound
	}
	return dialog.Reply{Text: batchSummary(result, succeeded)}
}

func parseIDs(args string) (ids []int64, invalid []string) {
	for _, field := range strings.Fields(strings.ReplaceAll(args, ",", " ")) {
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil || id <= 0 {
			invalid = append(invalid, field)
			continue
		}
		ids = append(ids, id)
	}
	return ids, invalid
}

func batchSummary(r models.BatchResult, succeeded string) string {
	var lines []string
	if len(r.Succeeded) > 0 {
		lines = append(lines, fmt.Sprintf(succeeded, joinIDs(r.Succeeded)))
	}
	if len(r.NotFound) > 0 {
		lines = append(lines, fmt.Sprintf(constant.TEXT_NOT_FOUND, joinIDs(r.NotFound)))
	}
	if len(r.Invalid) > 0 {
		lines = append(lines, fmt.Sprintf(constant.TEXT_INVALID_IDS, strings.Join(r.Invalid, ", ")))
	}
	return strings.Join(lines, "\n")
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}
