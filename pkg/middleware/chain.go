package middleware

// Chain composes a handler with a list of decorators, applied outermost
// first: Chain(a, b)(h) behaves like a(b(h)). It's used to layer tracing
// or logging around a strategy's event callbacks without the strategy
// itself knowing anything about either.
func Chain[T any](wrappers ...func(T) T) func(T) T {
	return func(handler T) T {
		for i := len(wrappers) - 1; i >= 0; i-- {
			handler = wrappers[i](handler)
		}
		return handler
	}
}
