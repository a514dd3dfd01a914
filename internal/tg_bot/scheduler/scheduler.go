// Package scheduler delivers due reminders and re-arms repeating ones.
//
// A reminder is delivered only by whoever flips its processing flag from
// false to true, so concurrent passes never deliver the same occurrence twice.
// A repeating reminder keeps the flag between occurrences and gives it back
// when exhausted. A delivery that keeps failing releases the flag and, for
// repeats, restores the taken occurrence, so the next pass tries again.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/constant"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/datetime"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/models"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"time"
)

// ErrChatUnreachable marks a delivery error that retrying can't fix,
// e.g. the user blocked the bot.
var ErrChatUnreachable = errors.New("chat unreachable")

// Store is the part of the reminder storage the scheduler works with.
type Store interface {
	DueReminders(ctx context.Context, now time.Time) ([]models.Reminder, error)
	ReminderByID(ctx context.Context, id int64) (models.Reminder, error)
	ClaimReminder(ctx context.Context, id int64) (bool, error)
	DecrementRepeat(ctx context.Context, id int64) (int, error)
	RestoreRepeat(ctx context.Context, id int64) error
	ReleaseReminder(ctx context.Context, id int64) error
	MarkReminderDone(ctx context.Context, id int64) error
	ReleaseStaleClaims(ctx context.Context) (int64, error)
}

// Notifier sends a text to a chat.
type Notifier interface {
	Send(ctx context.Context, chatID int64, text string, markdown bool) error
}

// Scheduler scans for due reminders on a fixed interval.
type Scheduler struct {
	store      Store
	notifier   Notifier
	clock      datetime.Clock
	deferrer   Deferrer
	interval   time.Duration
	periodUnit time.Duration // one repeat_period step
	retries    uint64
	newBackOff func() backoff.BackOff
}

// New creates a Scheduler.
// Arguments:
//   - store: reminder storage.
//   - notifier: outbound transport.
//   - clock: source of "now" in the reference zone.
//   - interval: time between scans.
//   - retries: extra delivery attempts after the first failure.
//   - initialBackoff: delay before the first retry, doubled on each next one.
//
// Returns a pointer to a Scheduler that arms repeats with real timers.
func New(store Store, notifier Notifier, clock datetime.Clock, interval time.Duration, retries int, initialBackoff time.Duration) *Scheduler {
	if retries < 0 {
		retries = 0
	}
	return &Scheduler{
		store:      store,
		notifier:   notifier,
		clock:      clock,
		deferrer:   NewTimerDeferrer(),
		interval:   interval,
		periodUnit: time.Minute,
		retries:    uint64(retries),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = initialBackoff
			b.MaxElapsedTime = time.Minute
			return b
		},
	}
}

// Run releases claims left by a previous process, then scans every interval
// until ctx is done. Pending repeat timers are cancelled on return.
func (s *Scheduler) Run(ctx context.Context) {
	defer s.Stop()

	if released, err := s.store.ReleaseStaleClaims(ctx); err != nil {
		logrus.WithError(err).Error("Failed to release stale reminder claims")
	} else if released > 0 {
		logrus.Infof("Released %d reminder claims of a previous run", released)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	logrus.Infof("Reminder scheduler started, interval %s", s.interval)

	s.pass(ctx)
	for {
		select {
		case <-ctx.Done():
			logrus.Info("Reminder scheduler stopped")
			return
		case <-ticker.C:
			s.pass(ctx)
		}
	}
}

// Stop cancels every pending repeat.
func (s *Scheduler) Stop() {
	s.deferrer.Stop()
}

func (s *Scheduler) pass(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("Reminder pass panicked: %v", r)
		}
	}()
	if err := s.RunOnce(ctx); err != nil {
		logrus.WithError(err).Error("Reminder pass failed")
	}
}

// RunOnce performs one scan: every due reminder is claimed and delivered,
// repeating ones go through the repeat path. Delivery failures are logged and
// only affect their own reminder.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	log := logrus.WithField("pass", uuid.NewString())
	due, err := s.store.DueReminders(ctx, s.clock.Now())
	if err != nil {
		return fmt.Errorf("load due reminders: %w", err)
	}
	if len(due) == 0 {
		return nil
	}
	log.Debugf("%d reminders due", len(due))

	for _, r := range due {
		if err = ctx.Err(); err != nil {
			return err
		}
		if r.Repeating() {
			if _, err = s.startRepeat(ctx, r.ID, log); err != nil {
				log.WithError(err).Errorf("Repeating reminder %d not delivered", r.ID)
			}
			continue
		}
		if err = s.deliverOnce(ctx, r, log); err != nil {
			log.WithError(err).Errorf("Reminder %d not delivered", r.ID)
		}
	}
	return nil
}

// DeliverRepeat runs the repeat path for id if nobody holds its claim.
// Returns false when the reminder was already claimed.
func (s *Scheduler) DeliverRepeat(ctx context.Context, id int64) (bool, error) {
	return s.startRepeat(ctx, id, logrus.WithField("reminder", id))
}

func (s *Scheduler) startRepeat(ctx context.Context, id int64, log *logrus.Entry) (bool, error) {
	claimed, err := s.store.ClaimReminder(ctx, id)
	if err != nil {
		return false, err
	}
	if !claimed {
		log.Debugf("Reminder %d is claimed by someone else", id)
		return false, nil
	}
	return true, s.fireRepeat(ctx, id, log)
}

// fireRepeat delivers one occurrence of a claimed repeating reminder and
// arms the next one. The reminder is re-read first so an action armed before
// the reminder was finished elsewhere does nothing.
func (s *Scheduler) fireRepeat(ctx context.Context, id int64, log *logrus.Entry) error {
	r, err := s.store.ReminderByID(ctx, id)
	if errors.Is(err, models.ErrReminderNotFound) {
		log.Debugf("Reminder %d is gone, repeat dropped", id)
		return nil
	}
	if err != nil {
		return err
	}
	if r.Done || !r.Processing {
		log.Debugf("Reminder %d is no longer held, repeat dropped", id)
		return nil
	}

	left, err := s.store.DecrementRepeat(ctx, id)
	if err != nil {
		return s.failOpen(ctx, id, false, err, log)
	}
	if err = s.deliver(ctx, r, log); err != nil {
		return s.failOpen(ctx, id, true, err, log)
	}

	if left > 0 {
		delay := time.Duration(r.RepeatPeriod) * s.periodUnit
		s.deferrer.After(id, delay, func() {
			defer func() {
				if p := recover(); p != nil {
					logrus.Errorf("Repeat of reminder %d panicked: %v", id, p)
				}
			}()
			if err := s.fireRepeat(context.Background(), id, logrus.WithField("reminder", id)); err != nil {
				logrus.WithError(err).Errorf("Repeat of reminder %d not delivered", id)
			}
		})
		log.Infof("Reminder %d delivered, %d left, next in %s", id, left, delay)
		return nil
	}

	if err = s.store.MarkReminderDone(ctx, id); err != nil {
		return fmt.Errorf("finish reminder %d: %w", id, err)
	}
	log.Infof("Reminder %d delivered for the last time", id)
	return nil
}

func (s *Scheduler) deliverOnce(ctx context.Context, r models.Reminder, log *logrus.Entry) error {
	claimed, err := s.store.ClaimReminder(ctx, r.ID)
	if err != nil {
		return err
	}
	if !claimed {
		log.Debugf("Reminder %d is claimed by someone else", r.ID)
		return nil
	}
	if err = s.deliver(ctx, r, log); err != nil {
		return s.failOpen(ctx, r.ID, false, err, log)
	}
	if err = s.store.MarkReminderDone(ctx, r.ID); err != nil {
		return fmt.Errorf("finish reminder %d: %w", r.ID, err)
	}
	log.Infof("Reminder %d delivered", r.ID)
	return nil
}

// failOpen gives the reminder back to the next scan.
func (s *Scheduler) failOpen(ctx context.Context, id int64, restore bool, cause error, log *logrus.Entry) error {
	if restore {
		if err := s.store.RestoreRepeat(ctx, id); err != nil {
			log.WithError(err).Errorf("Failed to restore repeat count of reminder %d", id)
		}
	}
	if err := s.store.ReleaseReminder(ctx, id); err != nil {
		log.WithError(err).Errorf("Failed to release reminder %d", id)
	}
	return cause
}

// deliver sends the notification, retrying transient failures with backoff.
func (s *Scheduler) deliver(ctx context.Context, r models.Reminder, log *logrus.Entry) error {
	text := NotificationText(r)
	policy := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), s.retries), ctx)
	return backoff.RetryNotify(func() error {
		err := s.notifier.Send(ctx, r.TelegramID, text, false)
		if errors.Is(err, ErrChatUnreachable) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		log.WithError(err).Warnf("Sending reminder %d failed, retry in %s", r.ID, wait)
	})
}

// NotificationText is the lead line plus the reminder's message, if any.
func NotificationText(r models.Reminder) string {
	if r.Message == "" {
		return constant.TEXT_REMINDING
	}
	return constant.TEXT_REMINDING + "\n" + r.Message
}
