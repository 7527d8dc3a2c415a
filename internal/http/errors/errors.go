// Package errors define el error estándar de la capa HTTP.
package errors

import (
	"fmt"
	"net/http"
)

// AppError define la estructura estándar para errores de la aplicación
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"` // No se serializa, usado para el header
	Err        error  `json:"-"` // Causa original, útil para logs, no se expone al cliente
}

// Error implementa la interfaz error
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap permite acceder al error original
func (e *AppError) Unwrap() error {
	return e.Err
}

// New crea un nuevo AppError
func New(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// FromError intenta convertir un error genérico en un AppError.
// Si no es un AppError, devuelve un error interno genérico conservando la causa.
func FromError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrInternalServerError.WithCause(err)
}

// WithDetail agrega detalle al error. Devuelve una COPIA para no mutar
// las variables globales base.
func (e *AppError) WithDetail(detail string) *AppError {
	newErr := *e
	newErr.Detail = detail
	return &newErr
}

// WithCause agrega el error original (causa). Devuelve una COPIA.
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

// =================================================================================
// LISTA DE ERRORES PREDEFINIDOS
// =================================================================================

var (
	// 4xx
	ErrBadRequest         = New(http.StatusBadRequest, "bad_request", "Invalid request")
	ErrNoValidPermissions = New(http.StatusBadRequest, "no_valid_permissions", "No valid permissions provided for issuance")
	ErrUnauthorized       = New(http.StatusUnauthorized, "unauthorized", "Missing or invalid credentials")
	ErrNotTokenOwner      = New(http.StatusForbidden, "not_token_owner", "You can only revoke tokens that you have issued")
	ErrNotFound           = New(http.StatusNotFound, "not_found", "Resource not found")
	ErrMethodNotAllowed   = New(http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	ErrTooManyRequests    = New(http.StatusTooManyRequests, "rate_limited", "Too many requests")

	// 5xx
	ErrTokenSigning        = New(http.StatusInternalServerError, "token_signing_failed", "Failed to create and sign the agent token")
	ErrRevocationLookup    = New(http.StatusInternalServerError, "revocation_lookup_failed", "Could not verify revocation status")
	ErrInternalServerError = New(http.StatusInternalServerError, "internal_error", "Internal server error")
)
