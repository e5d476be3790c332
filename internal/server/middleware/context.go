package middleware

import "context"

type contextKey struct{ name string }

var operatorKey = contextKey{"operator"}

// WithOperator returns a context carrying the authenticated operator (token subject).
func WithOperator(ctx context.Context, operator string) context.Context {
	return context.WithValue(ctx, operatorKey, operator)
}

// GetOperator returns the operator from context and true if set; otherwise "", false.
func GetOperator(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(operatorKey).(string)
	return v, ok
}
