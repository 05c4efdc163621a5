package llm

import "context"

type ctxKey int

const (
	purposeKey ctxKey = iota
	requestIDKey
)

// UnknownPurpose labels calls made without a purpose in their context.
const UnknownPurpose = "unknown"

// WithPurpose labels every backend call made with ctx. The label ends up
// on the recorded event and groups `llm stats` output.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom returns the purpose label, or UnknownPurpose.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok && v != "" {
		return v
	}
	return UnknownPurpose
}

// WithRequestID ties backend calls to the inbound request that caused them.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFrom returns the request id attached by WithRequestID, if any.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
