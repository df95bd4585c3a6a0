// Package lifecycle exposes world change events as a lifecycle.Source so
// that watchers run under the same supervision as the rest of the process.
package lifecycle

import (
	"context"
	"slices"
	"time"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/canon/pkg/core"
)

// SourceOption configures a world event source.
type SourceOption func(*worldSource)

// WithCoalesce holds events until no new event arrived for window and then
// emits one event per path. Editors often save a document with a burst of
// writes; the burst becomes a single event.
func WithCoalesce(window time.Duration) SourceOption {
	return func(s *worldSource) { s.window = window }
}

// WithFilter drops events for which keep returns false.
func WithFilter(keep func(core.Event) bool) SourceOption {
	return func(s *worldSource) { s.keep = keep }
}

type worldSource struct {
	events <-chan core.Event
	out    chan lifecycle.Event
	window time.Duration
	keep   func(core.Event) bool
}

// NewSource wraps the channel returned by a Watchable storage.
// core.Event satisfies lifecycle.Event through its String method.
func NewSource(events <-chan core.Event, opts ...SourceOption) lifecycle.Source {
	s := &worldSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *worldSource) Events() <-chan lifecycle.Event {
	return s.out
}

// Start forwards events in the background until ctx is done or the upstream
// channel closes, then closes Events. Pending coalesced events are flushed
// when upstream closes and dropped when ctx is cancelled.
func (s *worldSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, s.run)
	return nil
}

func (s *worldSource) run(ctx context.Context) error {
	defer close(s.out)

	var (
		pending = newBatch()
		timer   *time.Timer
		fire    <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-fire:
			fire = nil
			if !s.emit(ctx, pending.drain()) {
				return nil
			}
		case e, ok := <-s.events:
			if !ok {
				s.emit(ctx, pending.drain())
				return nil
			}
			if s.keep != nil && !s.keep(e) {
				continue
			}
			if s.window <= 0 {
				if !s.emit(ctx, []core.Event{e}) {
					return nil
				}
				continue
			}
			pending.add(e)
			if timer == nil {
				timer = time.NewTimer(s.window)
			} else {
				timer.Reset(s.window)
			}
			fire = timer.C
		}
	}
}

func (s *worldSource) emit(ctx context.Context, events []core.Event) bool {
	for _, e := range events {
		select {
		case s.out <- e:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

// batch keeps the net change per path in first-seen order.
type batch struct {
	order []string
	byKey map[string]core.Event
}

func newBatch() *batch {
	return &batch{byKey: make(map[string]core.Event)}
}

func (b *batch) add(e core.Event) {
	prev, seen := b.byKey[e.Path]
	if !seen {
		b.order = append(b.order, e.Path)
		b.byKey[e.Path] = e
		return
	}
	switch {
	case prev.Type == core.EventCreate && e.Type == core.EventDelete:
		// Created and removed inside one window: nothing happened.
		delete(b.byKey, e.Path)
		b.order = slices.DeleteFunc(b.order, func(p string) bool { return p == e.Path })
	case prev.Type == core.EventCreate:
		e.Type = core.EventCreate
		b.byKey[e.Path] = e
	default:
		b.byKey[e.Path] = e
	}
}

func (b *batch) drain() []core.Event {
	out := make([]core.Event, 0, len(b.order))
	for _, p := range b.order {
		out = append(out, b.byKey[p])
	}
	b.order = b.order[:0]
	clear(b.byKey)
	return out
}
