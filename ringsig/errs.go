package ringsig

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Kind classifies a ringsig error into the four outcomes callers need
// to distinguish: fix the input, reject the signature, reject the
// bytes, or treat it as an internal bug.
type Kind int

const (
	// InvalidParameters covers length mismatches, a non-power-of-two
	// ring size, an empty ring, or a signing key absent from the ring.
	// One or more independent causes may be aggregated together.
	InvalidParameters Kind = iota
	// InvalidProof covers any cryptographic verification failure. All
	// such failures are reported identically so a caller cannot learn
	// which sub-check failed.
	InvalidProof
	// SerializationError covers malformed point or scalar bytes during
	// decode.
	SerializationError
	// TranscriptError covers a Fiat-Shamir transcript labeling
	// mismatch: a programming bug in this package, not a hostile input.
	TranscriptError
)

func (k Kind) String() string {
	switch k {
	case InvalidParameters:
		return "InvalidParameters"
	case InvalidProof:
		return "InvalidProof"
	case SerializationError:
		return "SerializationError"
	case TranscriptError:
		return "TranscriptError"
	default:
		return "UnknownError"
	}
}

// Error wraps a Kind with the underlying cause(s).
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("ringsig: %s: %v", e.Kind, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether err was constructed with the given Kind, so
// callers can do errors.Is(err, ringsig.InvalidProof) style checks via
// the package-level sentinels below instead of type-asserting *Error.
func (e *Error) Is(target error) bool {
	k, ok := target.(kindSentinel)
	return ok && e.Kind == Kind(k)
}

type kindSentinel Kind

// Sentinels usable with errors.Is(err, ringsig.ErrInvalidProof) etc.
var (
	ErrInvalidParameters = kindSentinel(InvalidParameters)
	ErrInvalidProof      = kindSentinel(InvalidProof)
	ErrSerialization     = kindSentinel(SerializationError)
	ErrTranscript        = kindSentinel(TranscriptError)
)

func (k kindSentinel) Error() string { return Kind(k).String() }

func newError(kind Kind, err error) *Error { return &Error{Kind: kind, Err: err} }

// paramErrors accumulates independent InvalidParameters causes (e.g. a
// malformed ring AND a non-power-of-two size) so the caller can fix
// every precondition violation at once instead of one at a time.
type paramErrors struct {
	errs *multierror.Error
}

func (p *paramErrors) add(format string, args ...any) {
	p.errs = multierror.Append(p.errs, fmt.Errorf(format, args...))
}

func (p *paramErrors) errorOrNil() error {
	if p.errs == nil || p.errs.Len() == 0 {
		return nil
	}
	return newError(InvalidParameters, p.errs.ErrorOrNil())
}

var errNotFound = errors.New("signer public key not present in ring")
