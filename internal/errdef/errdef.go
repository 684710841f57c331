// Package errdef classifies errors so handlers can map them to HTTP statuses
// without inspecting error strings.
package errdef

import (
	"errors"
	"fmt"
)

func NewBadRequest(format string, a ...any) error {
	return badRequest{fmt.Errorf(format, a...)}
}

type badRequest struct{ error }

func IsBadRequest(err error) bool {
	var e badRequest
	return errors.As(err, &e)
}

func NewUnauthorized(format string, a ...any) error {
	return unauthorized{fmt.Errorf(format, a...)}
}

type unauthorized struct{ error }

func IsUnauthorized(err error) bool {
	var e unauthorized
	return errors.As(err, &e)
}

func NewForbidden(format string, a ...any) error {
	return forbidden{fmt.Errorf(format, a...)}
}

type forbidden struct{ error }

func IsForbidden(err error) bool {
	var e forbidden
	return errors.As(err, &e)
}

// NewNotFound creates an error representing a resource that could not be found.
func NewNotFound(format string, a ...any) error {
	return notFound{fmt.Errorf(format, a...)}
}

type notFound struct{ error }

// IsNotFound returns true if err is an error representing a resource that could not be found and false otherwise.
func IsNotFound(err error) bool {
	var e notFound
	return errors.As(err, &e)
}

// NewConflict creates an error representing a conflicting state, such as a
// concurrent write for the same key or a record that is already being edited.
func NewConflict(format string, a ...any) error {
	return conflict{fmt.Errorf(format, a...)}
}

type conflict struct{ error }

// IsConflict returns true if err is an error representing a conflict and false otherwise.
func IsConflict(err error) bool {
	var e conflict
	return errors.As(err, &e)
}

// NewNetwork creates an error representing a transport failure or timeout on
// an outbound call. Callers may retry these.
func NewNetwork(err error) error {
	return network{fmt.Errorf("network failure: %w", err)}
}

type network struct{ error }

func IsNetwork(err error) bool {
	var e network
	return errors.As(err, &e)
}

// NewUpstream creates an error carrying the non-2xx status an upstream server
// responded with. The status is meant to be propagated verbatim.
func NewUpstream(status int, format string, a ...any) error {
	return upstream{fmt.Errorf(format, a...), status}
}

type upstream struct {
	error
	status int
}

func IsUpstream(err error) bool {
	var e upstream
	return errors.As(err, &e)
}

// UpstreamStatus returns the upstream HTTP status carried by err, if any.
func UpstreamStatus(err error) (int, bool) {
	var e upstream
	if errors.As(err, &e) {
		return e.status, true
	}
	return 0, false
}

// NewMalformed creates an error representing upstream data that could not be
// parsed. The message always contains "parse" so callers matching on parse
// failures classify it correctly.
func NewMalformed(format string, a ...any) error {
	return malformed{fmt.Errorf("parse error: %s", fmt.Sprintf(format, a...))}
}

type malformed struct{ error }

func IsMalformed(err error) bool {
	var e malformed
	return errors.As(err, &e)
}

// NewTransform creates an error representing a failed form transformation.
func NewTransform(format string, a ...any) error {
	return transform{fmt.Errorf(format, a...)}
}

type transform struct{ error }

func IsTransform(err error) bool {
	var e transform
	return errors.As(err, &e)
}

// NewIncomplete creates an error representing a stored record missing
// required fields, an internal integrity problem.
func NewIncomplete(format string, a ...any) error {
	return incomplete{fmt.Errorf(format, a...)}
}

type incomplete struct{ error }

func IsIncomplete(err error) bool {
	var e incomplete
	return errors.As(err, &e)
}

// WithTranslation attaches a translation key and interpolation params to err
// so the presentation layer can localize the message. The underlying
// classification of err is preserved.
func WithTranslation(err error, key string, params map[string]string) error {
	return translated{err, key, params}
}

type translated struct {
	error
	key    string
	params map[string]string
}

func (t translated) Unwrap() error { return t.error }

// Translation returns the translation key and params attached to err, if any.
func Translation(err error) (string, map[string]string, bool) {
	var e translated
	if errors.As(err, &e) {
		return e.key, e.params, true
	}
	return "", nil, false
}
