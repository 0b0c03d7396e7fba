package auth

import "context"

type ctxKey int

const ctxKeySubject ctxKey = iota

func WithSubject(ctx context.Context, subject string) context.Context {
	if subject == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKeySubject, subject)
}

// SubjectFromContext returns the authenticated service token name, or "" when auth is disabled.
func SubjectFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(ctxKeySubject).(string)
	return v
}
