// Package laserr defines the errors returned by the point cloud data model.
//
// Every rejected mutation returns an error wrapping one of the sentinel
// values below, so callers can branch with errors.Is.
package laserr

import (
	"errors"
	"fmt"
)

var (
	ErrTypeMismatch           = errors.New("type mismatch")
	ErrLengthMismatch         = errors.New("length mismatch")
	ErrUnknownAttribute       = errors.New("unknown attribute")
	ErrNotRegistered          = errors.New("attribute not registered")
	ErrNameCollision          = errors.New("name collision")
	ErrUnsupportedType        = errors.New("unsupported type")
	ErrTooManyExtraAttributes = errors.New("too many extra attributes")
	ErrNoCompatibleFormat     = errors.New("no compatible point format")
	ErrFileFormat             = errors.New("file format error")
	ErrUnsupportedVersion     = errors.New("unsupported version")
	ErrInconsistentState      = errors.New("inconsistent state")
	ErrUnknownEPSG            = errors.New("unknown EPSG code")
)

// ErrRegistryFull is returned when the extra attribute slot table is exhausted.
var ErrRegistryFull = ErrTooManyExtraAttributes

// AttributeError reports which attribute a mutation was rejected for and why.
type AttributeError struct {
	Attribute string
	Rule      string
	Err       error
}

func (e *AttributeError) Error() string {
	if e.Rule == "" {
		return fmt.Sprintf("%s: %v", e.Attribute, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Attribute, e.Err, e.Rule)
}

func (e *AttributeError) Unwrap() error {
	return e.Err
}

// Attribute builds an AttributeError. The rule is formatted with args.
func Attribute(name string, err error, rule string, args ...any) error {
	if len(args) > 0 {
		rule = fmt.Sprintf(rule, args...)
	}
	return &AttributeError{Attribute: name, Rule: rule, Err: err}
}
