package log

import "context"

type contextKey struct{}

// NewContext returns ctx carrying l.
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the logger stored in ctx, or the default logger under
// component.
func FromContext(ctx context.Context, component string) *Logger {
	if l, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return l.WithComponent(component)
	}
	return Default(component)
}
