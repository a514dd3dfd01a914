package dialog

import (
	"errors"
	"fmt"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/constant"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/datetime"
	"strings"
	"time"
)

// Prompts of the reminder dialog.
const (
	PromptDay          = `Which day to set reminder? Type "-" to set today!`
	PromptDayPassed    = "Day %d is already passed. Did you mean other month?\nIf so, specify which one, type \"-\" to choose day again"
	PromptDayTooBig    = "Day should be from 1 to %d"
	PromptNoSuchDay    = "Month %d has no day %d, choose another month or type \"-\" to choose day again"
	PromptHour         = "Ok, day set to %d, which hour?"
	PromptHourOfMonth  = "Ok, day set to %d of %d month, which hour?"
	PromptHourInvalid  = "Can't make a date with hour %q, which hour?"
	PromptMinute       = "Hour is %s, what about minutes?"
	PromptMessage      = `Minute is %d. Any message? "-" for empty`
	PromptRepeat       = "Should repeat reminder?"
	PromptYesNo        = `"yes" or "no"?`
	PromptRepeatCount  = "How many times?"
	PromptRepeatPeriod = "What period between reminds? In minutes."
)

var (
	dayPiece = Piece{Min: 0, Max: 32,
		OutOfRange: "Day should be from 1 to 31", NotNumber: "Day should be a number"}
	monthPiece = Piece{Min: 0, Max: 13, AllowDefault: true,
		OutOfRange: "Month should be from 1 to 12", NotNumber: "Month should be a number"}
	minutePiece = Piece{Min: -1, Max: 60,
		OutOfRange: "Minute should be from 0 to 59", NotNumber: "Minute should be a number"}
	repeatCountPiece = Piece{Min: 0, Max: 100,
		OutOfRange: "Should be less than 100 and bigger than 0", NotNumber: "It should be a number"}
	repeatPeriodPiece = Piece{Min: 0, Max: 100,
		OutOfRange: "Should be less than 100 and bigger than 0", NotNumber: "It should be a number"}
)

// ReminderDraft accumulates the fragments of a reminder under construction.
type ReminderDraft struct {
	Year         int // 0 until a month back-edge decides it
	Month        int
	Day          int
	Hour         string
	Minute       int
	Message      string
	FireAt       time.Time
	RepeatCount  int
	RepeatPeriod int
}

func (d ReminderDraft) fragments() datetime.Fragments {
	return datetime.Fragments{Year: d.Year, Month: d.Month, Day: d.Day, Hour: d.Hour, Minute: d.Minute}
}

// ReminderState is the suspended reminder dialog.
type ReminderState struct {
	Step  Step
	Draft ReminderDraft
}

// StartReminder returns the initial state and its prompt.
func StartReminder() (ReminderState, Reply) {
	return ReminderState{Step: StepDay}, Reply{Text: PromptDay}
}

// NextReminder is the transition function of the reminder dialog: it feeds
// one inbound message into st and returns the new state and what to do next.
// now must be in the reference zone loc.
func NextReminder(st ReminderState, text string, now time.Time, loc *time.Location) (ReminderState, Transition) {
	d := &st.Draft
	switch st.Step {
	case StepDay:
		if strings.TrimSpace(text) == datetime.DefaultSentinel {
			d.Month, d.Day = int(now.Month()), now.Day()
			st.Step = StepHour
			return st, ask(hourPrompt(*d, now))
		}
		day, _, retry := dayPiece.Check(text)
		if retry != "" {
			return st, ask(retry)
		}
		if last := datetime.DaysIn(now.Year(), int(now.Month())); day > last {
			return st, ask(fmt.Sprintf(PromptDayTooBig, last))
		}
		d.Month, d.Day = int(now.Month()), day
		if now.Day() > day {
			st.Step = StepMonth
			return st, ask(fmt.Sprintf(PromptDayPassed, day))
		}
		st.Step = StepHour
		return st, ask(hourPrompt(*d, now))

	case StepMonth:
		month, isDefault, retry := monthPiece.Check(text)
		if retry != "" {
			return st, ask(retry)
		}
		if isDefault {
			return st, Transition{kind: outcomeRestart}
		}
		year := datetime.YearForMonth(month, now)
		if d.Day > datetime.DaysIn(year, month) {
			return st, ask(fmt.Sprintf(PromptNoSuchDay, month, d.Day))
		}
		d.Month, d.Year = month, year
		st.Step = StepHour
		return st, ask(hourPrompt(*d, now))

	case StepHour:
		d.Hour = strings.TrimSpace(text)
		st.Step = StepMinute
		return st, ask(fmt.Sprintf(PromptMinute, d.Hour))

	case StepMinute:
		minute, _, retry := minutePiece.Check(text)
		if retry != "" {
			return st, ask(retry)
		}
		d.Minute = minute
		st.Step = StepMessage
		return st, ask(fmt.Sprintf(PromptMessage, minute))

	case StepMessage:
		d.Message = strings.TrimSpace(text)
		if d.Message == datetime.DefaultSentinel {
			d.Message = ""
		}
		fireAt, err := datetime.AssembleFuture(d.fragments(), now, loc)
		var fragErr *datetime.FragmentError
		switch {
		case errors.As(err, &fragErr):
			st.Step = StepHour
			return st, ask(fmt.Sprintf(PromptHourInvalid, d.Hour))
		case errors.Is(err, datetime.ErrDateInPast):
			st.Step = StepFinished
			return st, Transition{kind: outcomeAbort, Reply: Reply{Text: constant.TEXT_DATE_IN_FUTURE}}
		}
		d.FireAt = fireAt
		st.Step = StepRepeat
		return st, ask(PromptRepeat)

	case StepRepeat:
		yes, ok := ParseYesNo(text)
		if !ok {
			return st, ask(PromptYesNo)
		}
		if !yes {
			st.Step = StepFinished
			return st, Transition{kind: outcomeComplete}
		}
		st.Step = StepRepeatCount
		return st, ask(PromptRepeatCount)

	case StepRepeatCount:
		count, _, retry := repeatCountPiece.Check(text)
		if retry != "" {
			return st, ask(retry)
		}
		d.RepeatCount = count
		st.Step = StepRepeatPeriod
		return st, ask(PromptRepeatPeriod)

	case StepRepeatPeriod:
		period, _, retry := repeatPeriodPiece.Check(text)
		if retry != "" {
			return st, ask(retry)
		}
		d.RepeatPeriod = period
		// a single occurrence is a plain reminder
		if d.RepeatCount == 1 {
			d.RepeatCount = 0
		}
		st.Step = StepFinished
		return st, Transition{kind: outcomeComplete}
	}

	return st, Transition{kind: outcomeRestart}
}

func hourPrompt(d ReminderDraft, now time.Time) string {
	if d.Month != int(now.Month()) {
		return fmt.Sprintf(PromptHourOfMonth, d.Day, d.Month)
	}
	return fmt.Sprintf(PromptHour, d.Day)
}
