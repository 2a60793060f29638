// Package safeconv converts between integer types and panics when a value does not
// survive the conversion.
package safeconv

import "fmt"

// Integer is any built-in integer type or a type defined on one.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Must converts v to To. It panics if the result does not hold the same value,
// either because it was truncated or because its sign flipped.
// Use it only where an out-of-range value means a broken invariant.
func Must[To, From Integer](v From) To {
	out := To(v)

	if From(out) != v || (v < 0) != (out < 0) {
		panic(fmt.Sprintf("safeconv: %d does not fit in %T", v, out))
	}

	return out
}
