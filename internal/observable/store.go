// Package observable provides a value holder that publishes every update.
package observable

import "sync"

// Store holds a value and notifies subscribers of each new value. Updates
// are serialized: a transform runs to completion and every listener has seen
// its result before the next transform starts. Listeners run with the store
// locked and must not call Update.
type Store[T any] struct {
	mu        sync.Mutex
	value     T
	nextID    int
	listeners map[int]func(T)
	order     []int
}

// New returns a store holding initial.
func New[T any](initial T) *Store[T] {
	return &Store[T]{value: initial, listeners: map[int]func(T){}}
}

// Get returns the current value.
func (s *Store[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set replaces the value.
func (s *Store[T]) Set(v T) {
	s.Update(func(T) T { return v })
}

// Update applies fn to the current value, stores and publishes the result,
// and returns the previous and new values.
func (s *Store[T]) Update(fn func(T) T) (prev, next T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev = s.value
	next = fn(prev)
	s.value = next
	for _, id := range s.order {
		s.listeners[id](next)
	}
	return prev, next
}

// Subscribe registers fn and immediately calls it with the current value.
// The returned function removes the subscription.
func (s *Store[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.order = append(s.order, id)
	fn(s.value)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.listeners, id)
			for i, v := range s.order {
				if v == id {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Subscribers returns the number of active listeners.
func (s *Store[T]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}
