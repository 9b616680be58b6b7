package oauth

import "errors"

// Errores de los authenticators. ErrUnauthenticated cubre credenciales
// incorrectas, headers mal formados y coincidencias ambiguas por igual.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUnknownToken    = errors.New("unknown token")
)

// Mensajes que ve el cliente en el body {message}.
const (
	MsgClientCredentialsInvalid = "Client credentials invalid"
	MsgPasswordGrantRejected    = "client or user not found"
	MsgClientGrantRejected      = "client id not found"
	MsgCodeGrantRejected        = "client id or user id not found"
	MsgUnsupportedGrant         = "Unsupported grant type"
	MsgUnknownToken             = "Unknown token"
)

// RejectionError es un rechazo de autorización (401) con el mensaje público.
// Cause queda solo para logs.
type RejectionError struct {
	Message string
	Cause   error
}

func (e *RejectionError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RejectionError) Unwrap() error { return e.Cause }

func reject(msg string, cause error) *RejectionError {
	return &RejectionError{Message: msg, Cause: cause}
}

// IsRejection reporta si err es (o envuelve) un RejectionError.
func IsRejection(err error) bool {
	var r *RejectionError
	return errors.As(err, &r)
}
