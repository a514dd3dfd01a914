package dialog

import (
	"fmt"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/constant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
	_ "time/tzdata"
)

func moscow(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)
	return loc
}

// feed runs inputs through NextReminder from the initial state until a
// terminal transition and returns the last state and transition.
func feed(t *testing.T, now time.Time, inputs ...string) (ReminderState, Transition) {
	t.Helper()
	st, _ := StartReminder()
	var tr Transition
	for _, in := range inputs {
		st, tr = NextReminder(st, in, now, now.Location())
		if tr.Completed() || tr.Aborted() || tr.Restarted() {
			break
		}
	}
	return st, tr
}

func TestNextReminder_DayPassedEarlierMonthIsNextYear(t *testing.T) {
	t.Parallel()
	loc := moscow(t)
	now := time.Date(2026, time.October, 15, 10, 0, 0, 0, loc)

	st, tr := feed(t, now, "3")
	assert.Equal(t, StepMonth, st.Step)
	assert.Equal(t, fmt.Sprintf(PromptDayPassed, 3), tr.Reply.Text)

	st, tr = NextReminder(st, "2", now, loc)
	assert.Equal(t, StepHour, st.Step)
	assert.Equal(t, 2027, st.Draft.Year)
	assert.Equal(t, fmt.Sprintf(PromptHourOfMonth, 3, 2), tr.Reply.Text)

	for _, in := range []string{"14", "30", "Buy milk"} {
		st, tr = NextReminder(st, in, now, loc)
	}
	assert.Equal(t, StepRepeat, st.Step)
	assert.Equal(t, PromptRepeat, tr.Reply.Text)

	st, tr = NextReminder(st, "no", now, loc)
	require.True(t, tr.Completed())
	assert.True(t, time.Date(2027, time.February, 3, 14, 30, 0, 0, loc).Equal(st.Draft.FireAt))
	assert.Equal(t, "Buy milk", st.Draft.Message)
	assert.Zero(t, st.Draft.RepeatCount)
}

func TestNextReminder_DayPassedLaterMonthKeepsYear(t *testing.T) {
	t.Parallel()
	loc := moscow(t)
	now := time.Date(2026, time.October, 15, 10, 0, 0, 0, loc)

	st, _ := feed(t, now, "3", "11", "9", "0", "-", "n")
	assert.True(t, time.Date(2026, time.November, 3, 9, 0, 0, 0, loc).Equal(st.Draft.FireAt))
	assert.Empty(t, st.Draft.Message)
}

func TestNextReminder_MonthSentinelRestarts(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, time.October, 15, 10, 0, 0, 0, moscow(t))

	_, tr := feed(t, now, "3", "-")
	assert.True(t, tr.Restarted())
}

func TestNextReminder_DayBounds(t *testing.T) {
	t.Parallel()
	loc := moscow(t)

	september := time.Date(2026, time.September, 10, 10, 0, 0, 0, loc)
	st, tr := feed(t, september, "31")
	assert.Equal(t, StepDay, st.Step)
	assert.Equal(t, fmt.Sprintf(PromptDayTooBig, 30), tr.Reply.Text)

	st, tr = feed(t, september, "32")
	assert.Equal(t, StepDay, st.Step)
	assert.Equal(t, dayPiece.OutOfRange, tr.Reply.Text)

	st, tr = feed(t, september, "tomorrow")
	assert.Equal(t, StepDay, st.Step)
	assert.Equal(t, dayPiece.NotNumber, tr.Reply.Text)

	st, tr = feed(t, september, "-")
	assert.Equal(t, StepHour, st.Step)
	assert.Equal(t, fmt.Sprintf(PromptHour, 10), tr.Reply.Text)
}

func TestNextReminder_MonthWithoutThatDay(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, time.October, 31, 10, 0, 0, 0, moscow(t))

	st, tr := feed(t, now, "30", "2")
	assert.Equal(t, StepMonth, st.Step)
	assert.Equal(t, fmt.Sprintf(PromptNoSuchDay, 2, 30), tr.Reply.Text)
}

func TestNextReminder_MinuteBoundaries(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, time.October, 15, 10, 0, 0, 0, moscow(t))

	for _, bad := range []string{"60", "-1"} {
		st, tr := feed(t, now, "20", "14", bad)
		assert.Equal(t, StepMinute, st.Step, "minute %s", bad)
		assert.Equal(t, minutePiece.OutOfRange, tr.Reply.Text, "minute %s", bad)
	}

	st, tr := feed(t, now, "20", "14", "59")
	assert.Equal(t, StepMessage, st.Step)
	assert.Equal(t, 59, st.Draft.Minute)
	assert.Equal(t, fmt.Sprintf(PromptMessage, 59), tr.Reply.Text)
}

func TestNextReminder_UnparseableHourGoesBackToHour(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, time.October, 15, 10, 0, 0, 0, moscow(t))

	st, tr := feed(t, now, "20", "25", "0", "-")
	assert.Equal(t, StepHour, st.Step)
	assert.Equal(t, fmt.Sprintf(PromptHourInvalid, "25"), tr.Reply.Text)

	st, tr = feed(t, now, "20", "25", "0", "-", "2pm", "15", "-")
	assert.Equal(t, StepRepeat, st.Step)
	assert.Equal(t, 14, st.Draft.FireAt.Hour())
}

func TestNextReminder_PastDateAborts(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, time.October, 15, 10, 0, 0, 0, moscow(t))

	for _, inputs := range [][]string{
		{"-", "9", "0", "-"},
		{"-", "10", "0", "-"}, // equal to now is not in the future
	} {
		st, tr := feed(t, now, inputs...)
		require.True(t, tr.Aborted(), "inputs %v", inputs)
		assert.Equal(t, constant.TEXT_DATE_IN_FUTURE, tr.Reply.Text)
		assert.Equal(t, StepFinished, st.Step)
		assert.True(t, st.Draft.FireAt.IsZero())
	}
}

func TestNextReminder_Repeat(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, time.October, 15, 10, 0, 0, 0, moscow(t))
	prefix := []string{"-", "18", "0", "Stretch"}

	st, tr := feed(t, now, append(prefix, "maybe")...)
	assert.Equal(t, StepRepeat, st.Step)
	assert.Equal(t, PromptYesNo, tr.Reply.Text)

	st, tr = feed(t, now, append(prefix, "yes", "100")...)
	assert.Equal(t, StepRepeatCount, st.Step)
	assert.Equal(t, repeatCountPiece.OutOfRange, tr.Reply.Text)

	st, tr = feed(t, now, append(prefix, "yes", "3", "5")...)
	require.True(t, tr.Completed())
	assert.Equal(t, 3, st.Draft.RepeatCount)
	assert.Equal(t, 5, st.Draft.RepeatPeriod)

	st, tr = feed(t, now, append(prefix, "yes", "1", "5")...)
	require.True(t, tr.Completed())
	assert.Zero(t, st.Draft.RepeatCount, "single occurrence is not a repeat")
}

func TestNextReminder_FireAtAlwaysInFuture(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, time.October, 15, 10, 0, 0, 0, moscow(t))

	var cases [][]string
	for _, hour := range []string{"0", "9", "10", "11", "23"} {
		tail := []string{hour, "0", "-", "no"}
		for _, day := range []string{"-", "15", "16"} {
			cases = append(cases, append([]string{day}, tail...))
		}
		for _, month := range []string{"9", "10", "11"} {
			cases = append(cases, append([]string{"14", month}, tail...))
		}
	}

	for _, inputs := range cases {
		st, tr := feed(t, now, inputs...)
		if tr.Completed() {
			assert.True(t, st.Draft.FireAt.After(now), "inputs %v", inputs)
			continue
		}
		assert.True(t, tr.Aborted(), "inputs %v ended in step %s", inputs, st.Step)
	}
}
