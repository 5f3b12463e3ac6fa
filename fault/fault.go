// Package fault defines the error kinds shared by all render packages.
//
// Errors are returned wrapped with context and must be checked with
// errors.Is against the sentinels below.
package fault

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidArgument is returned for malformed arguments: bad ppqn,
	// malformed channel counts, malformed clip or warp arrays.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnresolvedInput is returned when graph edge references a node
	// that wasn't declared earlier.
	ErrUnresolvedInput = errors.New("unresolved input")
	// ErrUnsupportedLayout is returned when processor cannot accept
	// requested channel layout.
	ErrUnsupportedLayout = errors.New("unsupported layout")
	// ErrNotPrepared is returned when processing is attempted before
	// prepare call.
	ErrNotPrepared = errors.New("processor is not prepared")
	// ErrNotCompiled is returned when processing is attempted before
	// successful compilation.
	ErrNotCompiled = errors.New("processor is not compiled")
	// ErrIncompatibleVersion is returned when persisted state has
	// different version.
	ErrIncompatibleVersion = errors.New("incompatible version")
)

// Errors wraps errors that might occure when multiple operations
// are failing, e.g. when graph connections are wired.
type Errors []error

func (e Errors) Error() string {
	s := []string{}
	for _, se := range e {
		s = append(s, se.Error())
	}
	return strings.Join(s, "; ")
}

// Is checks if any of errors match provided sentinel error.
func (e Errors) Is(err error) bool {
	for _, se := range e {
		if errors.Is(se, err) {
			return true
		}
	}
	return false
}

// Ret returns untyped nil if error list is empty.
func (e Errors) Ret() error {
	if len(e) > 0 {
		return e
	}
	return nil
}
