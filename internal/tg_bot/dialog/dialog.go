// Package dialog implements the multi-step conversations of the bot as
// explicit state machines: a step identifier plus an accumulator, advanced by
// pure transition functions, wrapped by Dialog values that perform the
// terminal side effect (persisting the reminder or todo).
package dialog

import "context"

// Status tells the registry what to do with a dialog after a message.
type Status int

const (
	StatusContinue Status = iota // waiting for the next message
	StatusDone                   // terminal, drop the dialog
	StatusRestart                // drop the dialog and start a fresh one with the same message
)

// Reply is what the bot says back.
type Reply struct {
	Text           string
	Markdown       bool
	Choices        []string // quick reply buttons
	RemoveKeyboard bool
}

// Result of feeding one message to a dialog.
type Result struct {
	Status Status
	Reply  Reply
}

// Dialog is one in-flight conversation for a chat. Implementations are not
// safe for concurrent use; the registry serializes calls per chat.
type Dialog interface {
	// Start primes the dialog and returns its first prompt.
	Start(ctx context.Context) (Result, error)
	// Advance consumes exactly one inbound message.
	Advance(ctx context.Context, text string) (Result, error)
}

// Factory creates a dialog for the chat identified by chatID.
type Factory func(chatID int64) Dialog

// Step identifies the suspend point a dialog is waiting on.
type Step int

const (
	StepDay Step = iota
	StepMonth
	StepHour
	StepMinute
	StepMessage
	StepRepeat
	StepRepeatCount
	StepRepeatPeriod
	StepTodoMessage
	StepTodoCategory
	StepFinished
)

func (s Step) String() string {
	switch s {
	case StepDay:
		return "day"
	case StepMonth:
		return "month"
	case StepHour:
		return "hour"
	case StepMinute:
		return "minute"
	case StepMessage:
		return "message"
	case StepRepeat:
		return "repeat"
	case StepRepeatCount:
		return "repeat_count"
	case StepRepeatPeriod:
		return "repeat_period"
	case StepTodoMessage:
		return "todo_message"
	case StepTodoCategory:
		return "todo_category"
	case StepFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// outcome is the kind of a pure transition.
type outcome int

const (
	outcomeAsk      outcome = iota // stay in the dialog, send the prompt
	outcomeComplete                // accumulator is complete, run the terminal action
	outcomeAbort                   // terminal user-facing error, nothing is created
	outcomeRestart                 // user asked to start over
)

// Transition is the output of a pure step function.
type Transition struct {
	kind  outcome
	Reply Reply
}

func ask(text string) Transition {
	return Transition{kind: outcomeAsk, Reply: Reply{Text: text}}
}

// Completed reports whether the accumulator is ready for the terminal action.
func (t Transition) Completed() bool { return t.kind == outcomeComplete }

// Aborted reports a terminal validation error.
func (t Transition) Aborted() bool { return t.kind == outcomeAbort }

// Restarted reports a "start from scratch" signal.
func (t Transition) Restarted() bool { return t.kind == outcomeRestart }
