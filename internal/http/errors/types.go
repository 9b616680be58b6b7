package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError es el error estándar que la capa HTTP sabe serializar.
type AppError struct {
	Code       string `json:"-"` // código interno para logs y métricas
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // causa original, solo para logs
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
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
	}
}

// FromError convierte cualquier error en AppError; lo desconocido es un 500
// que conserva la causa.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServerError.WithCause(err)
}

// WithMessage devuelve una COPIA con otro mensaje público.
func (e *AppError) WithMessage(msg string) *AppError {
	newErr := *e
	newErr.Message = msg
	return &newErr
}

// WithCause devuelve una COPIA con la causa adjunta.
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

// =================================================================================
// ERRORES PREDEFINIDOS
// =================================================================================

var (
	// 401: credenciales de client/user/code inválidas o grant no soportado.
	// El mensaje se reemplaza con WithMessage según el caso.
	ErrUnauthorized = New(http.StatusUnauthorized, "AUTHORIZATION_ERROR", "Unauthorized")

	// 404
	ErrUnknownToken  = New(http.StatusNotFound, "UNKNOWN_TOKEN", "Unknown token")
	ErrRouteNotFound = New(http.StatusNotFound, "NOT_FOUND", "Not Found")

	// 405
	ErrMethodNotAllowed = New(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")

	// 400: body ilegible (form mal codificado o demasiado grande)
	ErrBadRequest = New(http.StatusBadRequest, "BAD_REQUEST", "Bad Request")

	// 500
	ErrInternalServerError = New(http.StatusInternalServerError, "INTERNAL_ERROR", "Internal Server Error")
)
