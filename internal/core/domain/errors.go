package domain

import (
	"errors"
	"net/http"
)

// Error is a domain failure carrying the HTTP-style status the boundary
// should surface it with. The message is returned to the client verbatim.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

func NewBadRequest(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg}
}

func NewUnauthorized(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: msg}
}

func NewNotFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Message: msg}
}

func NewConflict(msg string) *Error {
	return &Error{Status: http.StatusConflict, Message: msg}
}

// NewNoContent signals an update with no effective change. It travels the
// error path so services can abort the transaction, but the boundary renders
// it as a bodyless 204 rather than an error envelope.
func NewNoContent(msg string) *Error {
	return &Error{Status: http.StatusNoContent, Message: msg}
}

// AsDomainError unwraps err into a *Error when one is in the chain.
func AsDomainError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
