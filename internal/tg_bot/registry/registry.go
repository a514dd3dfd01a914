// Package registry keeps the in-flight dialog of every conversation.
// It guarantees at most one live dialog per conversation key and serializes
// all operations on the same key while different keys proceed in parallel.
package registry

import (
	"context"
	"errors"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/constant"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/dialog"
	"github.com/sirupsen/logrus"
	"sync"
)

// ErrNoFactory is returned by Advance when there is nothing to create a dialog with.
var ErrNoFactory = errors.New("registry: no dialog factory")

// entry is the per-key slot. mu is the per-key critical section; a slot whose
// dialog ends is unlinked from the map and marked removed so late waiters retry.
type entry struct {
	mu      sync.Mutex
	dialog  dialog.Dialog
	factory dialog.Factory
	removed bool
}

// Registry maps a conversation key (the chat id) to its live dialog.
type Registry struct {
	mu       sync.Mutex // guards entries only, never held while a dialog runs
	entries  map[int64]*entry
	fallback dialog.Factory
}

// New creates a Registry. fallback builds the dialog for a stray message that
// arrives when nothing is active for the key; it may be nil.
func New(fallback dialog.Factory) *Registry {
	return &Registry{
		entries:  make(map[int64]*entry),
		fallback: fallback,
	}
}

// lock returns the locked entry of key, creating an empty one when needed.
func (r *Registry) lock(key int64) *entry {
	for {
		r.mu.Lock()
		e, ok := r.entries[key]
		if !ok {
			e = &entry{}
			r.entries[key] = e
		}
		r.mu.Unlock()

		e.mu.Lock()
		if !e.removed {
			return e
		}
		e.mu.Unlock()
	}
}

// unlock releases e and drops it from the map when it holds no dialog.
func (r *Registry) unlock(key int64, e *entry) {
	if e.dialog == nil {
		r.mu.Lock()
		if r.entries[key] == e {
			delete(r.entries, key)
		}
		r.mu.Unlock()
		e.removed = true
	}
	e.mu.Unlock()
}

// Start discards whatever dialog key had, creates a fresh one with factory
// and returns its first prompt.
func (r *Registry) Start(ctx context.Context, key int64, factory dialog.Factory) (dialog.Reply, error) {
	e := r.lock(key)
	defer r.unlock(key, e)

	if e.dialog != nil {
		logrus.Debugf("Dialog of chat %d replaced by a new one", key)
	}
	e.dialog, e.factory = nil, factory
	return r.prime(ctx, key, e)
}

// Advance feeds text to the live dialog of key. Without a live dialog a fresh
// one is created and primed, and its first prompt is returned instead.
// A finished dialog is removed; a restarting one is removed and the registry
// re-enters with the same text, so the message both ends the stale dialog and
// opens the next one.
func (r *Registry) Advance(ctx context.Context, key int64, text string) (dialog.Reply, error) {
	e := r.lock(key)
	defer r.unlock(key, e)
	return r.advance(ctx, key, e, text)
}

func (r *Registry) advance(ctx context.Context, key int64, e *entry, text string) (dialog.Reply, error) {
	if e.dialog == nil {
		return r.prime(ctx, key, e)
	}

	res, err := e.dialog.Advance(ctx, text)
	if err != nil {
		e.dialog = nil
		return dialog.Reply{}, err
	}
	switch res.Status {
	case dialog.StatusDone:
		e.dialog = nil
	case dialog.StatusRestart:
		logrus.Debugf("Dialog of chat %d restarted", key)
		e.dialog = nil
		return r.advance(ctx, key, e, text)
	}
	return res.Reply, nil
}

// prime creates the dialog of an empty entry and returns its first prompt.
func (r *Registry) prime(ctx context.Context, key int64, e *entry) (dialog.Reply, error) {
	if e.factory == nil {
		e.factory = r.fallback
	}
	if e.factory == nil {
		return dialog.Reply{}, ErrNoFactory
	}

	d := e.factory(key)
	res, err := d.Start(ctx)
	if err != nil {
		return dialog.Reply{}, err
	}
	if res.Status == dialog.StatusContinue {
		e.dialog = d
	}
	return res.Reply, nil
}

// Cancel discards the dialog of key if there is one.
func (r *Registry) Cancel(key int64) string {
	e := r.lock(key)
	e.dialog = nil
	r.unlock(key, e)
	return constant.TEXT_CANCEL
}

// Active reports whether key has a live dialog. It waits for an in-flight
// operation on the same key.
func (r *Registry) Active(key int64) bool {
	e := r.lock(key)
	defer r.unlock(key, e)
	return e.dialog != nil
}

// Len is the number of conversations with a dialog, counting ones that are
// being advanced right now.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
