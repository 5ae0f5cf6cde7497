package logging

import (
	"context"
)

type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// TenantIDKey is the context key for the tenant a request acts for.
	TenantIDKey contextKey = "tenant_id"

	// SessionIDKey is the context key for transformation session IDs.
	SessionIDKey contextKey = "session_id"

	// ModelVersionIDKey is the context key for the model version in use.
	ModelVersionIDKey contextKey = "model_version_id"

	// ActorKey is the context key for the audit actor.
	ActorKey contextKey = "actor"
)

// orderedKeys fixes the order fields are emitted in.
var orderedKeys = []contextKey{RequestIDKey, TenantIDKey, SessionIDKey, ModelVersionIDKey, ActorKey}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, RequestIDKey)
}

// WithTenantID adds a tenant ID to the context.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, TenantIDKey, tenantID)
}

// GetTenantID retrieves the tenant ID from the context.
func GetTenantID(ctx context.Context) string {
	return stringValue(ctx, TenantIDKey)
}

// WithSessionID adds a transformation session ID to the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

// GetSessionID retrieves the session ID from the context.
func GetSessionID(ctx context.Context) string {
	return stringValue(ctx, SessionIDKey)
}

// WithModelVersionID adds a model version ID to the context.
func WithModelVersionID(ctx context.Context, modelVersionID string) context.Context {
	return context.WithValue(ctx, ModelVersionIDKey, modelVersionID)
}

// GetModelVersionID retrieves the model version ID from the context.
func GetModelVersionID(ctx context.Context) string {
	return stringValue(ctx, ModelVersionIDKey)
}

// WithActor adds the audit actor to the context.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// GetActor retrieves the audit actor from the context.
func GetActor(ctx context.Context) string {
	return stringValue(ctx, ActorKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// extractContextFields returns the non-empty request fields in ctx as
// key-value pairs suitable for slog.
func extractContextFields(ctx context.Context) []any {
	var fields []any
	for _, key := range orderedKeys {
		if v := stringValue(ctx, key); v != "" {
			fields = append(fields, string(key), v)
		}
	}
	return fields
}
