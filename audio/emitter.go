// SPDX-License-Identifier: EPL-2.0

package audio

// Emitter dispatches values of one type to its listeners in registration
// order. It is not safe for concurrent use.
type Emitter[T any] struct {
	listeners []func(T)
}

// On registers fn to be called for every emitted value.
func (e *Emitter[T]) On(fn func(T)) {
	e.listeners = append(e.listeners, fn)
}

func (e *Emitter[T]) Emit(v T) {
	for _, fn := range e.listeners {
		fn(v)
	}
}

// Len returns the number of registered listeners.
func (e *Emitter[T]) Len() int { return len(e.listeners) }
