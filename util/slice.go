package util

import (
	"golang.org/x/exp/slices"
)

// Unique returns the distinct values of in, keeping first occurrence order.
func Unique[T comparable](in []T) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
