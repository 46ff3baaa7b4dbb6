package middleware

import "context"

type contextKey string

const ctxSubject contextKey = "subject"

// SubjectFromContext returns the authenticated caller identity, empty when
// the request was not authenticated.
func SubjectFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSubject).(string); ok {
		return v
	}
	return ""
}

// WithSubject injects the caller identity into the context.
func WithSubject(ctx context.Context, subject string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSubject, subject)
}
