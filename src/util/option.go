package util

import "strconv"

// Option holds a value that may be absent. The zero value is None.
type Option[T any] struct {
	value T
	ok    bool
}

// Some returns an Option holding v.
func Some[T any](v T) Option[T] {
	return Option[T]{value: v, ok: true}
}

// None returns an empty Option.
func None[T any]() Option[T] {
	return Option[T]{}
}

// FromPtr converts a nil-able pointer into an Option.
func FromPtr[T any](p *T) Option[T] {
	if p == nil {
		return None[T]()
	}
	return Some(*p)
}

// Get returns the held value and whether it is present.
func (o Option[T]) Get() (T, bool) {
	return o.value, o.ok
}

// IsSome reports whether a value is present.
func (o Option[T]) IsSome() bool {
	return o.ok
}

// OrElse returns the held value or def when absent.
func (o Option[T]) OrElse(def T) T {
	if o.ok {
		return o.value
	}
	return def
}

// FormatInt renders an int option for logs, "-" when absent.
func FormatInt(o Option[int]) string {
	if v, ok := o.Get(); ok {
		return strconv.Itoa(v)
	}
	return "-"
}
