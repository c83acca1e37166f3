package capture

import (
	"context"
	"sync"
)

// Latest is a single-slot handoff between one producer and one consumer that
// keeps only the newest value. Put never blocks: a value the consumer has not
// taken yet is replaced and passed to the drop function. This turns a slow
// consumer into dropped frames instead of a growing queue.
type Latest[T any] struct {
	mu      sync.Mutex
	value   T
	full    bool
	closed  bool
	ready   chan struct{}
	onDrop  func(T)
	dropped uint64
}

// NewLatest creates an empty slot. onDrop, if non-nil, receives every value
// that is replaced before being taken or left behind by Close.
func NewLatest[T any](onDrop func(T)) *Latest[T] {
	return &Latest[T]{
		ready:  make(chan struct{}, 1),
		onDrop: onDrop,
	}
}

// Put stores v, replacing any pending value. It reports false if the slot is
// closed, in which case v is dropped.
func (l *Latest[T]) Put(v T) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		l.drop(v)
		return false
	}

	old, hadOld := l.value, l.full
	l.value = v
	l.full = true
	if hadOld {
		l.dropped++
	}
	l.mu.Unlock()

	if hadOld {
		l.drop(old)
	}

	select {
	case l.ready <- struct{}{}:
	default:
	}
	return true
}

// Take waits for a value and removes it from the slot. It returns ctx.Err()
// when the context ends first, and ErrSlotClosed once the slot is closed.
func (l *Latest[T]) Take(ctx context.Context) (T, error) {
	var zero T
	for {
		l.mu.Lock()
		if l.full {
			v := l.value
			l.value = zero
			l.full = false
			l.mu.Unlock()
			return v, nil
		}
		if l.closed {
			l.mu.Unlock()
			return zero, ErrSlotClosed
		}
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-l.ready:
		}
	}
}

// Dropped returns how many values were replaced before being taken.
func (l *Latest[T]) Dropped() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

// Close wakes any waiting consumer and releases a pending value.
func (l *Latest[T]) Close() {
	var zero T

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	pending, had := l.value, l.full
	l.value = zero
	l.full = false
	l.mu.Unlock()

	if had {
		l.drop(pending)
	}

	select {
	case l.ready <- struct{}{}:
	default:
	}
}

func (l *Latest[T]) drop(v T) {
	if l.onDrop != nil {
		l.onDrop(v)
	}
}
