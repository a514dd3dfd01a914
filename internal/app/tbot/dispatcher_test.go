package tbot

import (
	"context"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sync"
	"testing"
	"time"
)

func chatUpdate(id int, chatID int64) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: id,
		Message:  &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Text: "x"},
	}
}

func TestDispatcher_KeepsOrderPerChat(t *testing.T) {
	var mu sync.Mutex
	seen := map[int64][]int{}
	d := NewDispatcher(3, func(_ context.Context, u *tgbotapi.Update) {
		mu.Lock()
		defer mu.Unlock()
		seen[u.Message.Chat.ID] = append(seen[u.Message.Chat.ID], u.UpdateID)
	})

	updates := make(chan tgbotapi.Update)
	done := make(chan struct{})
	go func() {
		d.Run(context.Background(), updates)
		close(done)
	}()
	for i := 0; i < 30; i++ {
		updates <- chatUpdate(i, int64(i%3)-1)
	}
	close(updates)
	<-done

	require.Len(t, seen, 3)
	for chat, ids := range seen {
		assert.Len(t, ids, 10, "chat %d", chat)
		for i := 1; i < len(ids); i++ {
			assert.Less(t, ids[i-1], ids[i], "chat %d out of order", chat)
		}
	}
}

func TestDispatcher_SlowChatDoesNotBlockOthers(t *testing.T) {
	release := make(chan struct{})
	handled := make(chan int64, 1)
	d := NewDispatcher(2, func(_ context.Context, u *tgbotapi.Update) {
		if u.Message.Chat.ID == 0 {
			<-release
			return
		}
		handled <- u.Message.Chat.ID
	})

	updates := make(chan tgbotapi.Update, 2)
	updates <- chatUpdate(1, 0)
	updates <- chatUpdate(2, 1)
	done := make(chan struct{})
	go func() {
		d.Run(context.Background(), updates)
		close(done)
	}()

	select {
	case id := <-handled:
		assert.Equal(t, int64(1), id)
	case <-time.After(2 * time.Second):
		t.Fatal("second chat waited for the first")
	}
	close(release)
	close(updates)
	<-done
}

func TestDispatcher_PanicIsContained(t *testing.T) {
	var mu sync.Mutex
	var ids []int
	d := NewDispatcher(1, func(_ context.Context, u *tgbotapi.Update) {
		if u.UpdateID == 1 {
			panic("boom")
		}
		mu.Lock()
		ids = append(ids, u.UpdateID)
		mu.Unlock()
	})

	updates := make(chan tgbotapi.Update, 3)
	updates <- chatUpdate(1, 7)
	updates <- chatUpdate(2, 7)
	updates <- tgbotapi.Update{UpdateID: 3}
	close(updates)
	d.Run(context.Background(), updates)

	assert.Equal(t, []int{2, 3}, ids)
}

func TestDispatcher_StopsOnContextAndDrains(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var handledCtx context.Context
	d := NewDispatcher(0, func(hctx context.Context, _ *tgbotapi.Update) {
		cancel()
		handledCtx = hctx
	})

	updates := make(chan tgbotapi.Update, 1)
	updates <- chatUpdate(1, 5)
	d.Run(ctx, updates)

	require.NotNil(t, handledCtx)
	assert.NoError(t, handledCtx.Err())
}
