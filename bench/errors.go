package bench

import (
	"github.com/pingcap/errors"
)

// Error catalogue. Every fatal condition of a run maps to one of these codes.
var (
	ErrConfig = errors.Normalize(
		"invalid configuration: %s",
		errors.RFCCodeText("ZKL:ErrConfig"),
	)
	ErrConnection = errors.Normalize(
		"cannot establish session to %s",
		errors.RFCCodeText("ZKL:ErrConnection"),
	)
	ErrNamespaceConflict = errors.Normalize(
		"node %s already exists",
		errors.RFCCodeText("ZKL:ErrNamespaceConflict"),
	)
	ErrOperation = errors.Normalize(
		"%s %s failed",
		errors.RFCCodeText("ZKL:ErrOperation"),
	)
)

// WrapError attaches cause to an error from the catalogue. A nil cause
// yields nil.
func WrapError(rfcError *errors.Error, err error, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return rfcError.Wrap(err).GenWithStackByArgs(args...)
}

// RFCCode returns the outermost catalogue code carried by err, if any.
func RFCCode(err error) (errors.RFCErrorCode, bool) {
	for err != nil {
		if terr, ok := err.(*errors.Error); ok {
			return terr.RFCCode(), true
		}
		switch e := err.(type) {
		case interface{ Unwrap() error }:
			err = e.Unwrap()
		case interface{ Cause() error }:
			err = e.Cause()
		default:
			return "", false
		}
	}
	return "", false
}

// IsError reports whether err carries the code of rfcError.
func IsError(rfcError *errors.Error, err error) bool {
	code, ok := RFCCode(err)
	return ok && code == rfcError.RFCCode()
}
