package domain

import "errors"

// Errores de dominio (sin dependencias externas). Cada uno es una categoría que la
// capa HTTP traduce a un status; el mensaje concreto viaja en *Error.
var (
	ErrNotFound              = errors.New("resource not found")
	ErrForbidden             = errors.New("access denied")
	ErrOperationNotPermitted = errors.New("operation not permitted")
	ErrAlreadyExists         = errors.New("resource already exists")
	ErrAlreadyInState        = errors.New("resource already in requested state")
	ErrInvalidCredential     = errors.New("invalid credential")
	ErrValidation            = errors.New("validation failed")
)

// Error es un error de dominio con mensaje para el cliente; errors.Is(err, Kind) funciona.
type Error struct {
	Kind    error
	Message string
}

// NewError construye un error de la categoría kind con un mensaje concreto.
func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// Message devuelve el texto para el cliente: el de *Error si existe, si no el del error.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
