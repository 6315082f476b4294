package controller

import "sync"

// Stream is a push based, multi subscriber event source. Emit delivers to
// every subscriber synchronously on the caller's goroutine, so subscribers
// must not block. Once completed a stream delivers nothing further.
type Stream[T any] struct {
	mu         sync.Mutex
	nextID     uint64
	listeners  map[uint64]func(T)
	onComplete []func()
	completed  bool
}

// NewStream returns an open stream with no subscribers.
func NewStream[T any]() *Stream[T] {
	return &Stream[T]{listeners: make(map[uint64]func(T))}
}

// Subscribe registers fn and returns a function that removes it again.
// Subscribing to a completed stream is a no-op.
func (s *Stream[T]) Subscribe(fn func(T)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed || fn == nil {
		return func() {}
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// OnComplete registers fn to run once when the stream completes. If the
// stream has already completed fn runs immediately.
func (s *Stream[T]) OnComplete(fn func()) {
	s.mu.Lock()
	if s.completed {
		s.mu.Unlock()
		fn()
		return
	}
	s.onComplete = append(s.onComplete, fn)
	s.mu.Unlock()
}

// Emit sends v to all current subscribers.
func (s *Stream[T]) Emit(v T) {
	s.mu.Lock()
	if s.completed {
		s.mu.Unlock()
		return
	}
	fns := make([]func(T), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Complete ends the stream, drops all subscribers and runs completion
// callbacks. It is idempotent.
func (s *Stream[T]) Complete() {
	s.mu.Lock()
	if s.completed {
		s.mu.Unlock()
		return
	}
	s.completed = true
	s.listeners = nil
	done := s.onComplete
	s.onComplete = nil
	s.mu.Unlock()

	for _, fn := range done {
		fn()
	}
}

// Completed reports whether Complete has been called.
func (s *Stream[T]) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// Len returns the number of active subscribers.
func (s *Stream[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}
