package recorder

import (
	"context"
	"errors"
	"sync"
)

// ErrSourceClosed is returned when pushing to a source nobody is watching any more
var ErrSourceClosed = errors.New("position source closed")

// Update is one event from a position subscription.
// A non-nil Err means the subscription has failed.
type Update struct {
	Position Position
	Err      error
}

// Source is a subscription to position fixes.
// The returned channel delivers updates until ctx is cancelled; closing it
// ends the subscription with ErrLocationUnavailable.
type Source interface {
	Watch(ctx context.Context) (<-chan Update, error)
}

// ChannelSource is a Source fed by Push and Fail
type ChannelSource struct {
	updates chan Update
	done    chan struct{}
	once    sync.Once
}

// NewChannelSource creates an unbuffered source
func NewChannelSource() *ChannelSource {
	return &ChannelSource{
		updates: make(chan Update),
		done:    make(chan struct{}),
	}
}

// Watch returns the update channel. The source closes when ctx is done.
func (s *ChannelSource) Watch(ctx context.Context) (<-chan Update, error) {
	select {
	case <-s.done:
		return nil, ErrSourceClosed
	default:
	}
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()
	return s.updates, nil
}

// Push delivers a fix, blocking until the watcher takes it or the source closes
func (s *ChannelSource) Push(p Position) error {
	return s.send(Update{Position: p})
}

// Fail reports a subscription failure to the watcher
func (s *ChannelSource) Fail(err error) error {
	if err == nil {
		err = errors.New("location unavailable")
	}
	return s.send(Update{Err: err})
}

// Close stops delivery; later Push and Fail calls return ErrSourceClosed
func (s *ChannelSource) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *ChannelSource) send(u Update) error {
	select {
	case <-s.done:
		return ErrSourceClosed
	default:
	}
	select {
	case s.updates <- u:
		return nil
	case <-s.done:
		return ErrSourceClosed
	}
}
