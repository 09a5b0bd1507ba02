package dsl

import (
	"errors"
	"strings"

	"github.com/icode/ameba/internal/i18n"
)

// Sentinels matched through errors.Is by the typed errors below.
var (
	ErrSyntax        = errors.New("query syntax error")
	ErrUnprocessable = errors.New("unprocessable query")
)

// SyntaxError reports a malformed query: wrong arity, a wrong argument kind,
// illegal nesting, an unknown operator or bean type, or unparsable text.
// Key is one of the i18n message keys and Args its format arguments.
type SyntaxError struct {
	Key  string
	Args []interface{}
}

// NewSyntaxError creates a SyntaxError for key.
func NewSyntaxError(key string, args ...interface{}) *SyntaxError {
	return &SyntaxError{Key: key, Args: args}
}

func (e *SyntaxError) Error() string {
	return i18n.Get(e.Key, e.Args...)
}

// Localize renders the error in the language of m.
func (e *SyntaxError) Localize(m *i18n.Messages) string {
	if m == nil {
		return e.Error()
	}
	return m.Get(e.Key, e.Args...)
}

// Is reports whether target is ErrSyntax.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// UnprocessableEntityError reports a well formed query that references
// properties missing from the resolved entity.
type UnprocessableEntityError struct {
	Properties []string
}

// NewUnprocessableEntityError collects properties in order, dropping duplicates.
func NewUnprocessableEntityError(properties ...string) *UnprocessableEntityError {
	seen := make(map[string]struct{}, len(properties))
	unique := make([]string, 0, len(properties))
	for _, p := range properties {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		unique = append(unique, p)
	}
	return &UnprocessableEntityError{Properties: unique}
}

func (e *UnprocessableEntityError) Error() string {
	return e.Localize(i18n.Default())
}

// Localize renders the error in the language of m.
func (e *UnprocessableEntityError) Localize(m *i18n.Messages) string {
	if m == nil {
		m = i18n.Default()
	}
	return m.Get(i18n.KeyUnprocessable, "["+strings.Join(e.Properties, ", ")+"]")
}

// Is reports whether target is ErrUnprocessable.
func (e *UnprocessableEntityError) Is(target error) bool {
	return target == ErrUnprocessable
}
