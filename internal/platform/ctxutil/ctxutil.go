// Package ctxutil carries per-request caller and trace identity on a
// context.Context.
package ctxutil

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type ctxKey int

const (
	requestDataKey ctxKey = iota
	traceDataKey
)

const RoleAdmin = "admin"

// RequestData identifies the authenticated caller.
type RequestData struct {
	UserID uuid.UUID
	Role   string
}

// Privileged reports whether the caller may trigger vector index writes.
func (rd *RequestData) Privileged() bool {
	return rd != nil && strings.EqualFold(strings.TrimSpace(rd.Role), RoleAdmin)
}

type TraceData struct {
	TraceID   string
	RequestID string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(Default(ctx), requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	return lookup[RequestData](ctx, requestDataKey)
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(Default(ctx), traceDataKey, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	return lookup[TraceData](ctx, traceDataKey)
}

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func lookup[T any](ctx context.Context, key ctxKey) *T {
	if ctx == nil {
		return nil
	}
	v, _ := ctx.Value(key).(*T)
	return v
}
