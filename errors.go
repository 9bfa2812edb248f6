package matjson

import (
	"errors"
	"strconv"
	"strings"

	"github.com/logicossoftware/go-matjson/binning"
	"github.com/logicossoftware/go-matjson/geoid"
	"github.com/logicossoftware/go-matjson/material"
)

var (
	ErrMalformedDocument      = errors.New("matjson: malformed document")
	ErrUnresolvableIdentifier = errors.New("matjson: unresolvable identifier")
	ErrInvalidConfig          = errors.New("matjson: invalid configuration")
	ErrLimitExceeded          = errors.New("matjson: limit exceeded")
	ErrInvalidMagic           = errors.New("matjson: invalid magic")
	ErrUnsupportedVersion     = errors.New("matjson: unsupported version")
	ErrInvalidContainer       = errors.New("matjson: invalid container")

	// Owned by the sub-packages; aliased so callers can match on either.
	ErrDimensionMismatch  = material.ErrDimensionMismatch
	ErrUnknownAxisKind    = binning.ErrUnknownValue
	ErrIdentifierOverflow = geoid.ErrOverflow
)

// PathError records the document key path of a failing entry.
type PathError struct {
	Path []string
	Err  error
}

func (e *PathError) Error() string {
	return strings.Join(e.Path, ".") + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// pathError prefixes err with path. A *PathError from a nested call keeps
// its own path below the prefix.
func pathError(path []string, err error) error {
	full := append([]string(nil), path...)
	if pe, ok := err.(*PathError); ok {
		return &PathError{Path: append(full, pe.Path...), Err: pe.Err}
	}
	return &PathError{Path: full, Err: err}
}

// EntryErrors collects the entries skipped by a best-effort import.
type EntryErrors struct {
	Errs []error
}

func (e *EntryErrors) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return "matjson: " + strconv.Itoa(len(e.Errs)) + " entries skipped: " + strings.Join(msgs, "; ")
}

func (e *EntryErrors) Unwrap() []error {
	return e.Errs
}
