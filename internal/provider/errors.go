package provider

import (
	"errors"
	"fmt"
)

// Kind classifies a provider failure so callers can decide whether to
// retry, skip, or surface the error.
type Kind int

const (
	// KindUnknown is an unclassified failure.
	KindUnknown Kind = iota
	// KindNotFound means the upstream does not know the symbol or resource.
	KindNotFound
	// KindTransient covers timeouts, rate limits, and 5xx responses.
	KindTransient
	// KindPermanent covers failures that will not resolve on retry,
	// such as a missing API key or a rejected request.
	KindPermanent
	// KindSchema means the upstream payload did not match the expected shape.
	KindSchema
	// KindValidation means the caller's input was rejected before any
	// upstream call was made.
	KindValidation
	// KindUnsupported means the provider does not implement the operation.
	KindUnsupported
)

// String returns the kind name used in logs and metrics labels.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindTransient:
		return "transient"
	case KindPermanent:
		return "permanent"
	case KindSchema:
		return "schema"
	case KindValidation:
		return "validation"
	case KindUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Error is the classified error every adapter returns. Raw transport and
// decoding errors never cross the provider boundary unwrapped.
type Error struct {
	Op     string // e.g. "yahoo.quote"
	Symbol string
	Kind   Kind
	Err    error
}

func (e *Error) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Symbol, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a classified provider error.
func E(op, symbol string, kind Kind, err error) *Error {
	return &Error{Op: op, Symbol: symbol, Kind: kind, Err: err}
}

// Errorf builds a classified provider error from a format string.
func Errorf(op, symbol string, kind Kind, format string, args ...any) *Error {
	return &Error{Op: op, Symbol: symbol, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the Kind from an error chain. Unclassified errors
// report KindUnknown.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// IsNotFound reports whether the error chain carries KindNotFound.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsValidation reports whether the error chain carries KindValidation.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsUnsupported reports whether the error chain carries KindUnsupported.
func IsUnsupported(err error) bool { return KindOf(err) == KindUnsupported }
