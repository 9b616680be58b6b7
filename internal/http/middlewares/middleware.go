// Package middlewares contiene los decoradores http.Handler del servidor.
// Todos son compatibles con chi.Router.Use.
package middlewares

import (
	"context"
	"net/http"
)

// Middleware es un decorador de http.Handler
type Middleware = func(http.Handler) http.Handler

type ctxKey string

const ctxRequestIDKey ctxKey = "request_id"

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetRequestID obtiene el request ID del contexto ("" si no hay).
func GetRequestID(ctx context.Context) string {
	if s, ok := ctx.Value(ctxRequestIDKey).(string); ok {
		return s
	}
	return ""
}
