// Package lifecycle exposes scribble change streams as lifecycle sources, so
// hosts can consume store and storage events next to their other signals.
package lifecycle

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/scribble/pkg/core"
)

// ErrStarted is returned when a Source is started twice.
var ErrStarted = errors.New("source already started")

// Source forwards scribble events that pass its filter.
type Source struct {
	in  <-chan core.Event
	out chan lifecycle.Event

	types map[core.EventType]struct{}
	keep  func(core.Event) bool

	started   atomic.Bool
	forwarded atomic.Int64
	dropped   atomic.Int64
}

// Option configures a Source.
type Option func(*Source)

// WithTypes forwards only events of the given types. No types means all.
func WithTypes(types ...core.EventType) Option {
	return func(s *Source) {
		if len(types) == 0 {
			s.types = nil
			return
		}
		s.types = make(map[core.EventType]struct{}, len(types))
		for _, t := range types {
			s.types[t] = struct{}{}
		}
	}
}

// WithFilter forwards only events for which keep returns true.
func WithFilter(keep func(core.Event) bool) Option {
	return func(s *Source) { s.keep = keep }
}

// NewSource adapts a scribble event channel, such as one returned by
// store.Subscribe or a Watchable storage.
func NewSource(events <-chan core.Event, opts ...Option) *Source {
	s := &Source{in: events, out: make(chan lifecycle.Event)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Events returns the forwarded events. The channel closes once the source
// stops.
func (s *Source) Events() <-chan lifecycle.Event {
	return s.out
}

// Start forwards events in the background until ctx ends or the input
// closes.
func (s *Source) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrStarted
	}
	lifecycle.Go(ctx, s.run)
	return nil
}

func (s *Source) run(ctx context.Context) error {
	defer close(s.out)
	for {
		var ev core.Event
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-s.in:
			if !ok {
				return nil
			}
			ev = e
		}
		if !s.accepts(ev) {
			s.dropped.Add(1)
			continue
		}
		select {
		case s.out <- ev:
			s.forwarded.Add(1)
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Source) accepts(ev core.Event) bool {
	if s.types != nil {
		if _, ok := s.types[ev.Type]; !ok {
			return false
		}
	}
	return s.keep == nil || s.keep(ev)
}

// Counts reports how many events were forwarded and how many were filtered
// out so far.
func (s *Source) Counts() (forwarded, filtered int64) {
	return s.forwarded.Load(), s.dropped.Load()
}

var _ lifecycle.Source = (*Source)(nil)
