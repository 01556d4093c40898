package utils

import (
	"golang.org/x/exp/constraints"
)

// Sum adds all values. time.Duration qualifies as an Integer
func Sum[T constraints.Integer | constraints.Float](values []T) (total T) {
	for _, value := range values {
		total += value
	}
	return total
}

func MapInt[T constraints.Integer | constraints.Float, D constraints.Integer | constraints.Float](src []T) (dst []D) {
	dst = make([]D, 0, len(src))
	for _, value := range src {
		dst = append(dst, D(value))
	}
	return dst
}
