package repository

import (
	"context"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

var base = time.Date(2026, time.October, 15, 7, 0, 0, 0, time.UTC)

// newTestStorage opens a migrated sqlite file whose clock advances one minute
// per write, so creation order is visible in created_at.
func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "remind.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Migrate(ctx), "migrate must be idempotent")

	var mu sync.Mutex
	tick := base
	s.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick = tick.Add(time.Minute)
		return tick
	}
	return s
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Parallel()
	_, err := Open(context.Background(), "postgres", "")
	require.Error(t, err)
}

func TestEnsureChat(t *testing.T) {
	t.Parallel()
	s := newTestStorage(t)
	ctx := context.Background()

	chat, created, err := s.EnsureChat(ctx, 100, "jdoe", "John Doe")
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := s.EnsureChat(ctx, 100, "jd", "Johnny")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, chat.ID, again.ID)

	stored, err := s.ChatByTelegramID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "jd", stored.Username)
	assert.Equal(t, "Johnny", stored.FullName)

	_, err = s.ChatByTelegramID(ctx, 200)
	assert.ErrorIs(t, err, models.ErrChatNotFound)
}

func TestReminderLifecycle(t *testing.T) {
	t.Parallel()
	s := newTestStorage(t)
	ctx := context.Background()
	fireAt := base.Add(time.Hour)

	created, err := s.CreateReminder(ctx, models.NewReminder{
		TelegramID: 42, FireAt: fireAt.Add(300 * time.Millisecond), Message: "Stretch", RepeatCount: 3, RepeatPeriod: 5,
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	due, err := s.DueReminders(ctx, fireAt.Add(-time.Second))
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = s.DueReminders(ctx, fireAt)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, int64(42), due[0].TelegramID)
	assert.True(t, fireAt.Equal(due[0].FireAt), "stored with second precision: %v", due[0].FireAt)
	assert.Equal(t, "Stretch", due[0].Message)
	assert.Equal(t, 3, due[0].RepeatCount)

	claimed, err := s.ClaimReminder(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, claimed)
	claimed, err = s.ClaimReminder(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, claimed, "second claim is a conflict")

	due, err = s.DueReminders(ctx, fireAt)
	require.NoError(t, err)
	assert.Empty(t, due, "claimed reminders are not due")

	left, err := s.DecrementRepeat(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, left)
	require.NoError(t, s.RestoreRepeat(ctx, created.ID))
	r, err := s.ReminderByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, r.RepeatCount)
	assert.True(t, r.Processing)

	released, err := s.ReleaseStaleClaims(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), released)

	require.NoError(t, s.MarkReminderDone(ctx, created.ID))
	r, err = s.ReminderByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, r.Done)
	assert.False(t, r.Processing)

	claimed, err = s.ClaimReminder(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, claimed, "done reminders can't be claimed")

	_, err = s.ReminderByID(ctx, created.ID+100)
	assert.ErrorIs(t, err, models.ErrReminderNotFound)
}

func TestDecrementRepeatStopsAtZero(t *testing.T) {
	t.Parallel()
	s := newTestStorage(t)
	ctx := context.Background()
	r, err := s.CreateReminder(ctx, models.NewReminder{TelegramID: 1, FireAt: base, RepeatCount: 1, RepeatPeriod: 1})
	require.NoError(t, err)

	for _, want := range []int{0, 0} {
		left, err := s.DecrementRepeat(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, want, left)
	}
	_, err = s.DecrementRepeat(ctx, r.ID+1)
	assert.ErrorIs(t, err, models.ErrReminderNotFound)
}

func TestClaimReminderConcurrent(t *testing.T) {
	t.Parallel()
	s := newTestStorage(t)
	ctx := context.Background()
	r, err := s.CreateReminder(ctx, models.NewReminder{TelegramID: 1, FireAt: base})
	require.NoError(t, err)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.ClaimReminder(ctx, r.ID)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, won)
}

func TestOpenCategories(t *testing.T) {
	t.Parallel()
	s := newTestStorage(t)
	ctx := context.Background()

	old, err := s.CreateTodo(ctx, 7, "Archive", "Old")
	require.NoError(t, err)
	require.NoError(t, s.SetTodoDone(ctx, old.ID, true))
	for _, c := range []string{"Work", "Home", "Work"} {
		_, err = s.CreateTodo(ctx, 7, "something", c)
		require.NoError(t, err)
	}
	_, err = s.CreateTodo(ctx, 8, "not mine", "Garage")
	require.NoError(t, err)

	categories, err := s.OpenCategories(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"Work", "Home"}, categories)
}

func TestTodosByChat(t *testing.T) {
	t.Parallel()
	s := newTestStorage(t)
	ctx := context.Background()

	first, err := s.CreateTodo(ctx, 7, "Buy bread", "Home")
	require.NoError(t, err)
	second, err := s.CreateTodo(ctx, 7, "Send report", "")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultTodoCategory, second.Category)
	third, err := s.CreateTodo(ctx, 7, "Fix sink", "Home")
	require.NoError(t, err)

	all, err := s.TodosByChat(ctx, 7, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{third.ID, second.ID, first.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})

	home, err := s.TodosByChat(ctx, 7, "Home")
	require.NoError(t, err)
	require.Len(t, home, 2)
	assert.Equal(t, "Fix sink", home[0].Message)

	none, err := s.TodosByChat(ctx, 8, "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBatchTodos(t *testing.T) {
	t.Parallel()
	s := newTestStorage(t)
	ctx := context.Background()

	mine, err := s.CreateTodo(ctx, 7, "Mine", "")
	require.NoError(t, err)
	foreign, err := s.CreateTodo(ctx, 8, "Foreign", "")
	require.NoError(t, err)

	res, err := s.MarkTodos(ctx, 7, []int64{mine.ID, foreign.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, []int64{mine.ID}, res.Succeeded)
	assert.Equal(t, []int64{foreign.ID, 999}, res.NotFound)

	res, err = s.MarkTodos(ctx, 7, []int64{mine.ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{mine.ID}, res.Succeeded, "marking twice still succeeds")

	got, err := s.TodoByID(ctx, mine.ID)
	require.NoError(t, err)
	assert.True(t, got.Done)
	got, err = s.TodoByID(ctx, foreign.ID)
	require.NoError(t, err)
	assert.False(t, got.Done)

	res, err = s.DeleteTodos(ctx, 7, []int64{mine.ID, foreign.ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{mine.ID}, res.Succeeded)
	assert.Equal(t, []int64{foreign.ID}, res.NotFound)
	_, err = s.TodoByID(ctx, mine.ID)
	assert.ErrorIs(t, err, models.ErrTodoNotFound)
}
