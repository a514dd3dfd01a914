// Package service provides the core logic of the Telegram bot: it routes
// commands and dialog replies of every chat and sends the answers back.
package service

import (
	"context"
	"fmt"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/constant"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/datetime"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/dialog"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"strings"
	"time"
)

// Sender is the part of *tgbotapi.BotAPI used to talk to chats.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Conversations keeps the in-flight dialog of every chat.
type Conversations interface {
	Start(ctx context.Context, key int64, factory dialog.Factory) (dialog.Reply, error)
	Advance(ctx context.Context, key int64, text string) (dialog.Reply, error)
	Cancel(key int64) string
	Active(key int64) bool
}

// Storage defines the persistence used by direct commands.
type Storage interface {
	EnsureChat(ctx context.Context, telegramID int64, username, fullName string) (models.TelegramChat, bool, error)
	CreateReminder(ctx context.Context, r models.NewReminder) (models.Reminder, error)
	CreateTodo(ctx context.Context, telegramID int64, message, category string) (models.Todo, error)
	TodosByChat(ctx context.Context, telegramID int64, category string) ([]models.Todo, error)
	MarkTodos(ctx context.Context, telegramID int64, ids []int64) (models.BatchResult, error)
	DeleteTodos(ctx context.Context, telegramID int64, ids []int64) (models.BatchResult, error)
}

// TgBotServices is the main service struct for the Telegram bot, integrating all dependencies.
type TgBotServices struct {
	Bot            Sender         // Telegram Bot API instance.
	Storage        Storage        // Chats, reminders and todos.
	Dialogs        Conversations  // Per chat dialogs.
	clock          datetime.Clock // Now in the reference zone.
	loc            *time.Location // Reference zone of every date.
	reminderDialog dialog.Factory
	todoDialog     dialog.Factory
}

// NewTgBot creates a new TgBotServices instance with the specified dependencies.
// Arguments:
//   - bot: Telegram Bot API instance or a fake in tests.
//   - storage: persistence for direct commands.
//   - dialogs: registry of in-flight dialogs.
//   - clock, loc: time source and the reference zone.
//   - reminderDialog, todoDialog: factories for /remind and /addtodo.
//
// Returns a pointer to a TgBotServices.
func NewTgBot(bot Sender, storage Storage, dialogs Conversations, clock datetime.Clock, loc *time.Location, reminderDialog, todoDialog dialog.Factory) *TgBotServices {
	return &TgBotServices{
		Bot:            bot,
		Storage:        storage,
		Dialogs:        dialogs,
		clock:          clock,
		loc:            loc,
		reminderDialog: reminderDialog,
		todoDialog:     todoDialog,
	}
}

// sendMessage sends a plain message to the specified chat.
func (b *TgBotServices) sendMessage(chatID int64, text string) error {
	return b.sendReply(chatID, dialog.Reply{Text: text})
}

// sendReply sends reply to the chat, attaching quick reply buttons or
// removing the keyboard when asked.
// Arguments:
//   - chatID: the ID of the chat to send the message to.
//   - reply: text and presentation of the message.
//
// Returns an error if the message fails to send.
func (b *TgBotServices) sendReply(chatID int64, reply dialog.Reply) error {
	if reply.Text == "" {
		return nil
	}
	msg := tgbotapi.NewMessage(chatID, reply.Text)
	if reply.Markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	switch {
	case len(reply.Choices) > 0:
		msg.ReplyMarkup = choicesKeyboard(reply.Choices)
	case reply.RemoveKeyboard:
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	}
	_, err := b.Bot.Send(msg)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to send message to chat %d: %s", chatID, reply.Text)
	}
	return err
}

// choicesKeyboard puts every choice on its own row.
func choicesKeyboard(choices []string) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(choices))
	for _, choice := range choices {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(choice)))
	}
	markup := tgbotapi.NewReplyKeyboard(rows...)
	markup.ResizeKeyboard = true
	markup.OneTimeKeyboard = true
	return markup
}

// UpdateProcessing handles one incoming Telegram update. Updates of the same
// chat must not be processed concurrently.
// Arguments:
//   - ctx: bounds storage calls made for the update.
//   - update: the Telegram update to process.
func (b *TgBotServices) UpdateProcessing(ctx context.Context, update *tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.Text == "" {
		return
	}
	chatID := msg.Chat.ID
	logrus.WithFields(logrus.Fields{"chatID": chatID, "command": msg.Command()}).Debug("Update received")

	var err error
	if msg.IsCommand() {
		err = b.handleCommand(ctx, msg)
	} else if b.Dialogs.Active(chatID) {
		err = b.advanceDialog(ctx, chatID, msg.Text)
	} else {
		err = b.sendMessage(chatID, constant.TEXT_UNKNOWN)
	}
	if err != nil {
		logrus.WithError(err).Errorf("Failed to process update %d of chat %d", update.UpdateID, chatID)
	}
}

func (b *TgBotServices) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case constant.COMMAND_START:
		return b.start(ctx, msg)
	case constant.COMMAND_HELP:
		return b.sendReply(chatID, dialog.Reply{Text: constant.TEXT_HELP, Markdown: true})
	case constant.COMMAND_REMIND:
		return b.startDialog(ctx, chatID, b.reminderDialog)
	case constant.COMMAND_REMIND_ARGS:
		return b.sendReply(chatID, b.remindDirect(ctx, chatID, args))
	case constant.COMMAND_CANCEL:
		return b.sendReply(chatID, dialog.Reply{Text: b.Dialogs.Cancel(chatID), RemoveKeyboard: true})
	case constant.COMMAND_ADD_TODO:
		return b.startDialog(ctx, chatID, b.todoDialog)
	case constant.COMMAND_ADD_TODO_I:
		return b.sendReply(chatID, b.addTodoDirect(ctx, chatID, args))
	case constant.COMMAND_TODOS:
		return b.sendReply(chatID, b.listTodos(ctx, chatID, args))
	case constant.COMMAND_MARK_TODO:
		return b.sendReply(chatID, b.batchTodos(ctx, chatID, args, b.Storage.MarkTodos, constant.TEXT_MARKED))
	case constant.COMMAND_REMOVE_TODO:
		return b.sendReply(chatID, b.batchTodos(ctx, chatID, args, b.Storage.DeleteTodos, constant.TEXT_REMOVED))
	default:
		return b.sendMessage(chatID, constant.TEXT_UNKNOWN)
	}
}

// start registers the chat or refreshes its names, and drops any dialog.
func (b *TgBotServices) start(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	b.Dialogs.Cancel(chatID)

	var username, fullName string
	if msg.From != nil {
		username = msg.From.UserName
		fullName = strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
	}
	chat, created, err := b.Storage.EnsureChat(ctx, chatID, username, fullName)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to register chat %d", chatID)
		return b.sendMessage(chatID, constant.TEXT_ERROR)
	}
	logrus.Infof("Message [%s] from %s (chat %d)", msg.Text, username, chatID)

	if created {
		return b.sendMessage(chatID, constant.TEXT_START)
	}
	return b.sendReply(chatID, dialog.Reply{Text: fmt.Sprintf(constant.TEXT_HELLO, chat.FullName), RemoveKeyboard: true})
}

func (b *TgBotServices) startDialog(ctx context.Context, chatID int64, factory dialog.Factory) error {
	reply, err := b.Dialogs.Start(ctx, chatID, factory)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to start dialog in chat %d", chatID)
		return b.sendMessage(chatID, constant.TEXT_ERROR)
	}
	return b.sendReply(chatID, reply)
}

func (b *TgBotServices) advanceDialog(ctx context.Context, chatID int64, text string) error {
	reply, err := b.Dialogs.Advance(ctx, chatID, text)
	if err != nil {
		logrus.WithError(err).Errorf("Dialog of chat %d failed", chatID)
		return b.sendReply(chatID, dialog.Reply{Text: constant.TEXT_ERROR, RemoveKeyboard: true})
	}
	return b.sendReply(chatID, reply)
}
