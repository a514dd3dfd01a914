package dialog

import (
	"context"
	"fmt"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/constant"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/datetime"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/models"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"time"
)

// ReminderCreator persists a reminder for the chat that owns the dialog.
type ReminderCreator interface {
	CreateReminder(ctx context.Context, r models.NewReminder) (models.Reminder, error)
}

// ReminderDialog drives NextReminder for one chat and persists the result.
type ReminderDialog struct {
	chatID  int64
	store   ReminderCreator
	clock   datetime.Clock
	loc     *time.Location
	state   ReminderState
	started bool
}

// NewReminderFactory returns a Factory of reminder dialogs bound to store,
// clock and the reference zone loc.
func NewReminderFactory(store ReminderCreator, clock datetime.Clock, loc *time.Location) Factory {
	return func(chatID int64) Dialog {
		return &ReminderDialog{chatID: chatID, store: store, clock: clock, loc: loc}
	}
}

// Start implements Dialog.
func (d *ReminderDialog) Start(_ context.Context) (Result, error) {
	var reply Reply
	d.state, reply = StartReminder()
	d.started = true
	return Result{Status: StatusContinue, Reply: reply}, nil
}

// Advance implements Dialog.
func (d *ReminderDialog) Advance(ctx context.Context, text string) (Result, error) {
	if !d.started {
		return d.Start(ctx)
	}
	now := d.clock.Now().In(d.loc)
	next, tr := NextReminder(d.state, text, now, d.loc)
	logrus.WithFields(logrus.Fields{"chatID": d.chatID, "from": d.state.Step, "to": next.Step}).Debug("Reminder dialog step")
	d.state = next

	switch {
	case tr.Restarted():
		return Result{Status: StatusRestart}, nil
	case tr.Aborted():
		return Result{Status: StatusDone, Reply: tr.Reply}, nil
	case !tr.Completed():
		return Result{Status: StatusContinue, Reply: tr.Reply}, nil
	}

	draft := d.state.Draft
	reminder, err := d.store.CreateReminder(ctx, models.NewReminder{
		TelegramID:   d.chatID,
		FireAt:       draft.FireAt,
		Message:      draft.Message,
		RepeatCount:  draft.RepeatCount,
		RepeatPeriod: draft.RepeatPeriod,
	})
	if err != nil {
		return Result{}, fmt.Errorf("create reminder for chat %d: %w", d.chatID, err)
	}
	logrus.Infof("Reminder %d created for chat %d at %s", reminder.ID, d.chatID, draft.FireAt.Format(time.RFC3339))
	return Result{
		Status: StatusDone,
		Reply:  Reply{Text: Confirmation(draft.FireAt, now, draft.Message)},
	}, nil
}

// State exposes the suspended state, mostly for tests and logging.
func (d *ReminderDialog) State() ReminderState {
	return d.state
}

// Confirmation renders "Will remind you <relative> (<absolute>)" and the
// message when there is one.
func Confirmation(fireAt, now time.Time, message string) string {
	relative := humanize.RelTime(fireAt, now, "ago", "from now")
	text := fmt.Sprintf(constant.TEXT_WILL_REMIND, relative, fireAt.In(now.Location()).Format(constant.DATE_FORMAT))
	if message != "" {
		text += fmt.Sprintf(constant.TEXT_REMINDER_BODY, message)
	}
	return text
}
