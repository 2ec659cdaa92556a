package test

import (
	"fmt"

	"go.uber.org/mock/gomock"
)

type condition[T any] struct {
	fn func(v T) bool
}

func (c condition[T]) Matches(x interface{}) bool {
	v, ok := x.(T)
	return ok && c.fn(v)
}

func (c condition[T]) String() string {
	var zero T
	return fmt.Sprintf("is a %T satisfying the condition", zero)
}

// Match returns a gomock matcher accepting arguments of type T for which fn returns true
func Match[T any](fn func(v T) bool) gomock.Matcher {
	return condition[T]{fn: fn}
}
