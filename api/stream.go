package api

import (
	"context"
	"iter"
	"sync"
)

// DeltaStream is a pull iterator over the deltas of a streamed response.
//
//	for stream.Next() {
//		delta := stream.Current()
//	}
//	if err := stream.Err(); err != nil { ... }
//
// Close releases the underlying resources and may be called more than once.
type DeltaStream[D any] interface {
	Next() bool
	Current() D
	Err() error
	Close() error
}

// ChannelStream adapts a producer goroutine writing deltas to a channel.
// The producer closes deltas when done and may report a failure on errs.
// onClose, when not nil, is called once by Close so the producer can stop.
func ChannelStream[D any](ctx context.Context, deltas <-chan D, errs <-chan error, onClose func()) DeltaStream[D] {
	return &channelStream[D]{ctx: ctx, deltas: deltas, errs: errs, onClose: onClose}
}

type channelStream[D any] struct {
	ctx       context.Context
	deltas    <-chan D
	errs      <-chan error
	onClose   func()
	closeOnce sync.Once

	current D
	err     error
	done    bool
}

func (s *channelStream[D]) Next() bool {
	if s.done || s.err != nil {
		return false
	}
	for {
		if s.deltas == nil && s.errs == nil {
			s.done = true
			return false
		}
		select {
		case <-s.ctx.Done():
			s.err = s.ctx.Err()
			return false
		case d, ok := <-s.deltas:
			if !ok {
				s.deltas = nil
				continue
			}
			s.current = d
			return true
		case err, ok := <-s.errs:
			if !ok {
				s.errs = nil
				continue
			}
			if err != nil {
				s.err = err
				return false
			}
		}
	}
}

func (s *channelStream[D]) Current() D {
	return s.current
}

func (s *channelStream[D]) Err() error {
	return s.err
}

func (s *channelStream[D]) Close() error {
	s.closeOnce.Do(func() {
		s.done = true
		if s.onClose != nil {
			s.onClose()
		}
	})
	return nil
}

// SeqStream adapts a push iterator. The iterator stops at the first non-nil error.
func SeqStream[D any](seq iter.Seq2[D, error]) DeltaStream[D] {
	next, stop := iter.Pull2(seq)
	return &seqStream[D]{next: next, stop: stop}
}

type seqStream[D any] struct {
	next func() (D, error, bool)
	stop func()

	current D
	err     error
	done    bool
}

func (s *seqStream[D]) Next() bool {
	if s.done {
		return false
	}
	d, err, ok := s.next()
	if !ok {
		s.done = true
		return false
	}
	if err != nil {
		s.err = err
		s.done = true
		s.stop()
		return false
	}
	s.current = d
	return true
}

func (s *seqStream[D]) Current() D {
	return s.current
}

func (s *seqStream[D]) Err() error {
	return s.err
}

func (s *seqStream[D]) Close() error {
	s.done = true
	s.stop()
	return nil
}

// SliceStream yields the given deltas in order.
func SliceStream[D any](deltas ...D) DeltaStream[D] {
	return SeqStream(func(yield func(D, error) bool) {
		for _, d := range deltas {
			if !yield(d, nil) {
				return
			}
		}
	})
}
