package middlewares

import "context"

type ctxKey string

const (
	// ctxOwnerKey guarda la identidad owner autenticada (agent builder)
	ctxOwnerKey ctxKey = "owner"
	// ctxRequestIDKey guarda el request ID
	ctxRequestIDKey ctxKey = "request_id"
)

// WithOwner inyecta la identidad owner en el contexto.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ctxOwnerKey, owner)
}

// GetOwner obtiene la identidad owner del contexto.
// Retorna cadena vacía si la ruta no pasó por el middleware de auth.
func GetOwner(ctx context.Context) string {
	if v := ctx.Value(ctxOwnerKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetRequestID obtiene el request ID del contexto.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(ctxRequestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
