package ameba

import (
	"errors"
	"net/http"

	"github.com/icode/ameba/internal/dsl"
	"github.com/icode/ameba/internal/i18n"
)

// Sentinel errors for filter failures.
// These can be used with errors.Is() for error handling.
var (
	// ErrQuerySyntax indicates a malformed filter: unparsable text, wrong
	// arity, wrong argument kinds, illegal nesting or unknown operators.
	// Maps to HTTP 400 Bad Request.
	ErrQuerySyntax = dsl.ErrSyntax

	// ErrUnprocessableEntity indicates a well formed filter that references
	// properties the entity does not have.
	// Maps to HTTP 422 Unprocessable Entity.
	ErrUnprocessableEntity = dsl.ErrUnprocessable

	// ErrEntitySetNotFound indicates the entity set is not registered.
	// Maps to HTTP 404 Not Found.
	ErrEntitySetNotFound = errors.New("ameba: entity set not found")
)

// SyntaxError carries the message key and arguments of a syntax failure.
type SyntaxError = dsl.SyntaxError

// UnprocessableEntityError lists the unknown properties of a filter, in the
// order they were first referenced.
type UnprocessableEntityError = dsl.UnprocessableEntityError

// ErrorCode is the machine readable code of an error response.
type ErrorCode string

const (
	ErrorCodeBadRequest          ErrorCode = "BadRequest"
	ErrorCodeNotFound            ErrorCode = "NotFound"
	ErrorCodeMethodNotAllowed    ErrorCode = "MethodNotAllowed"
	ErrorCodeUnprocessableEntity ErrorCode = "UnprocessableEntity"
	ErrorCodeInternalServerError ErrorCode = "InternalServerError"
)

// MapErrorToHTTPStatus returns the HTTP status code for an error returned by
// ApplyFilter or SearchSource.
//
// Example usage:
//
//	q, err := svc.ApplyFilter(ctx, nil, "Customers", r.URL.Query().Get("filter"))
//	if err != nil {
//	    http.Error(w, err.Error(), ameba.MapErrorToHTTPStatus(err))
//	    return
//	}
func MapErrorToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch {
	case errors.Is(err, ErrQuerySyntax):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnprocessableEntity):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrEntitySetNotFound):
		return http.StatusNotFound
	}

	// Default to internal server error for unknown errors
	return http.StatusInternalServerError
}

func errorCode(status int) ErrorCode {
	switch status {
	case http.StatusBadRequest:
		return ErrorCodeBadRequest
	case http.StatusNotFound:
		return ErrorCodeNotFound
	case http.StatusMethodNotAllowed:
		return ErrorCodeMethodNotAllowed
	case http.StatusUnprocessableEntity:
		return ErrorCodeUnprocessableEntity
	}
	return ErrorCodeInternalServerError
}

// IsSyntaxError returns true if the error is a filter syntax error.
func IsSyntaxError(err error) bool {
	return errors.Is(err, ErrQuerySyntax)
}

// IsUnprocessableEntityError returns true if the filter referenced unknown
// properties.
func IsUnprocessableEntityError(err error) bool {
	return errors.Is(err, ErrUnprocessableEntity)
}

// LocalizeError renders err in language, e.g. "zh-Hans". Errors other than
// filter errors are returned as err.Error().
func LocalizeError(err error, language string) string {
	return localize(err, i18n.ForAcceptLanguage(language))
}

func localize(err error, messages *i18n.Messages) string {
	var syntaxErr *SyntaxError
	if errors.As(err, &syntaxErr) {
		return syntaxErr.Localize(messages)
	}
	var unprocessable *UnprocessableEntityError
	if errors.As(err, &unprocessable) {
		return unprocessable.Localize(messages)
	}
	return err.Error()
}
