package tbot

import (
	"context"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"sync"
)

// queueSize is the backlog of one worker before the reader blocks.
const queueSize = 64

// HandleFunc processes one update.
type HandleFunc func(ctx context.Context, update *tgbotapi.Update)

// Dispatcher spreads updates over a fixed set of workers by chat id, so the
// updates of one chat are handled one at a time and in order while different
// chats run in parallel.
type Dispatcher struct {
	workers int
	handle  HandleFunc
}

// NewDispatcher creates a Dispatcher with at least one worker.
func NewDispatcher(workers int, handle HandleFunc) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{workers: workers, handle: handle}
}

// Run reads updates until ctx is done or updates is closed, then waits for
// the already queued updates to be handled. Handlers get a context that is
// not cancelled with ctx so they can finish their writes.
func (d *Dispatcher) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	handleCtx := context.WithoutCancel(ctx)
	queues := make([]chan tgbotapi.Update, d.workers)
	var wg sync.WaitGroup
	for i := range queues {
		queues[i] = make(chan tgbotapi.Update, queueSize)
		wg.Add(1)
		go func(queue <-chan tgbotapi.Update) {
			defer wg.Done()
			for update := range queue {
				d.safeHandle(handleCtx, update)
			}
		}(queues[i])
	}
	defer func() {
		for _, queue := range queues {
			close(queue)
		}
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				logrus.Info("Telegram update channel closed")
				return
			}
			select {
			case queues[d.shard(update)] <- update:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (d *Dispatcher) shard(update tgbotapi.Update) int {
	var key int64
	if chat := update.FromChat(); chat != nil {
		key = chat.ID
	}
	return int(uint64(key) % uint64(d.workers))
}

func (d *Dispatcher) safeHandle(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("Update %d handler panicked: %v", update.UpdateID, r)
		}
	}()
	d.handle(ctx, &update)
}
