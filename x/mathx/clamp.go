// Package mathx holds the small generic numeric helpers shared by the
// sampler, mapper and renderer.
package mathx

import "golang.org/x/exp/constraints"

// Clamp bounds v to the closed range between lo and hi. The bounds may be
// given in either order.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	return Max(lo, Min(v, hi))
}

func Min[T constraints.Ordered](a, b T) T {
	if b < a {
		return b
	}
	return a
}

func Max[T constraints.Ordered](a, b T) T {
	if b > a {
		return b
	}
	return a
}
