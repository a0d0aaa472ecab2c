package stack

import "errors"

// ErrOverflow is returned by Push when a bounded stack is full.
var ErrOverflow = errors.New("stack: depth limit exceeded")

// Stack is a LIFO of T. A zero limit means unbounded.
type Stack[T any] struct {
	items []T
	limit int
}

func New[T any]() *Stack[T] {
	return &Stack[T]{}
}

// NewBounded caps the number of items the stack accepts.
// The limit guards callers whose depth comes from untrusted input.
func NewBounded[T any](limit int) *Stack[T] {
	if limit < 0 {
		limit = 0
	}
	return &Stack[T]{limit: limit}
}

// Push adds item at the top, failing with ErrOverflow when a bounded
// stack is already at its limit.
func (s *Stack[T]) Push(item T) error {
	if s.limit > 0 && len(s.items) >= s.limit {
		return ErrOverflow
	}
	s.items = append(s.items, item)
	return nil
}

func (s *Stack[T]) Pop() (T, bool) {
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}

	index := len(s.items) - 1
	item := s.items[index]
	s.items = s.items[:index]
	return item, true
}

func (s *Stack[T]) Peek() (T, bool) {
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}

	return s.items[len(s.items)-1], true
}

// PeekRef allows modifying the top element in place.
func (s *Stack[T]) PeekRef() *T {
	if len(s.items) == 0 {
		return nil
	}

	return &s.items[len(s.items)-1]
}

func (s *Stack[T]) IsEmpty() bool {
	return len(s.items) == 0
}

func (s *Stack[T]) Size() int {
	return len(s.items)
}

func (s *Stack[T]) Limit() int {
	return s.limit
}
