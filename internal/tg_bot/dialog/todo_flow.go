package dialog

import (
	"context"
	"fmt"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/datetime"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"strings"
)

// Prompts of the todo dialog.
const (
	PromptTodoMessage       = "Write a new todo message"
	PromptTodoMessageEmpty  = "Todo message can't be empty"
	PromptTodoCategory      = "Choose category or create new one"
	PromptTodoCategoryEmpty = "Category can't be empty, choose one or type a new one"
	TextTodoCreated         = "Todo created\n*Message:* %s\n*Category:* %s"
)

// TodoState is the suspended todo dialog.
type TodoState struct {
	Step       Step
	Message    string
	Category   string
	Categories []string // open categories offered as quick choices
}

// StartTodo returns the initial state and its prompt.
func StartTodo() (TodoState, Reply) {
	return TodoState{Step: StepTodoMessage}, Reply{Text: PromptTodoMessage}
}

// NextTodo is the transition function of the todo dialog. categories are the
// chat's open categories and are only used when leaving the message step.
func NextTodo(st TodoState, text string, categories []string) (TodoState, Transition) {
	text = strings.TrimSpace(text)
	switch st.Step {
	case StepTodoMessage:
		if text == "" {
			return st, ask(PromptTodoMessageEmpty)
		}
		st.Message = text
		st.Categories = categories
		st.Step = StepTodoCategory
		return st, Transition{kind: outcomeAsk, Reply: Reply{Text: PromptTodoCategory, Choices: st.Categories}}

	case StepTodoCategory:
		switch text {
		case "":
			return st, Transition{kind: outcomeAsk, Reply: Reply{Text: PromptTodoCategoryEmpty, Choices: st.Categories}}
		case datetime.DefaultSentinel:
			st.Category = models.DefaultTodoCategory
		default:
			st.Category = text
		}
		st.Step = StepFinished
		return st, Transition{kind: outcomeComplete}
	}
	return st, Transition{kind: outcomeRestart}
}

// TodoStore is what the todo dialog needs from storage.
type TodoStore interface {
	OpenCategories(ctx context.Context, telegramID int64) ([]string, error)
	CreateTodo(ctx context.Context, telegramID int64, message, category string) (models.Todo, error)
}

// TodoDialog drives NextTodo for one chat and persists the todo.
type TodoDialog struct {
	chatID  int64
	store   TodoStore
	state   TodoState
	started bool
}

// NewTodoFactory returns a Factory of todo dialogs bound to store.
func NewTodoFactory(store TodoStore) Factory {
	return func(chatID int64) Dialog {
		return &TodoDialog{chatID: chatID, store: store}
	}
}

// Start implements Dialog.
func (d *TodoDialog) Start(_ context.Context) (Result, error) {
	var reply Reply
	d.state, reply = StartTodo()
	d.started = true
	return Result{Status: StatusContinue, Reply: reply}, nil
}

// Advance implements Dialog.
func (d *TodoDialog) Advance(ctx context.Context, text string) (Result, error) {
	if !d.started {
		return d.Start(ctx)
	}
	var categories []string
	if d.state.Step == StepTodoMessage && strings.TrimSpace(text) != "" {
		var err error
		if categories, err = d.store.OpenCategories(ctx, d.chatID); err != nil {
			return Result{}, fmt.Errorf("load todo categories for chat %d: %w", d.chatID, err)
		}
	}

	next, tr := NextTodo(d.state, text, categories)
	d.state = next
	switch {
	case tr.Restarted():
		return Result{Status: StatusRestart}, nil
	case !tr.Completed():
		return Result{Status: StatusContinue, Reply: tr.Reply}, nil
	}

	todo, err := d.store.CreateTodo(ctx, d.chatID, d.state.Message, d.state.Category)
	if err != nil {
		return Result{}, fmt.Errorf("create todo for chat %d: %w", d.chatID, err)
	}
	logrus.Infof("Todo %d created for chat %d", todo.ID, d.chatID)
	return Result{Status: StatusDone, Reply: TodoCreatedReply(todo)}, nil
}

// TodoCreatedReply is the markdown confirmation of a new todo.
func TodoCreatedReply(todo models.Todo) Reply {
	return Reply{
		Text: fmt.Sprintf(TextTodoCreated,
			tgbotapi.EscapeText(tgbotapi.ModeMarkdown, todo.Message),
			tgbotapi.EscapeText(tgbotapi.ModeMarkdown, todo.Category)),
		Markdown:       true,
		RemoveKeyboard: true,
	}
}
