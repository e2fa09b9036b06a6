package tiercache

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a cache matches exactly one of these
// with errors.Is.
var (
	ErrInvalidKey           = errors.New("tiercache: invalid key")
	ErrInvalidConfiguration = errors.New("tiercache: invalid configuration")
	ErrInvalidArgument      = errors.New("tiercache: invalid argument")
	ErrRemoteTimeout        = errors.New("tiercache: remote timeout")
	ErrRemoteOperation      = errors.New("tiercache: remote operation failed")
	ErrSerialization        = errors.New("tiercache: serialization failed")
	ErrValueRetrieval       = errors.New("tiercache: value loader failed")
	ErrInterrupted          = errors.New("tiercache: interrupted")
)

// OpError describes a failed cache operation. Unwrap exposes both the kind
// sentinel and the underlying cause.
type OpError struct {
	Op   string // get, load, put, add, evict, clear
	Key  string // backend key; empty for clear or when encoding failed
	Kind error  // one of the Err* kinds above
	Err  error  // cause; may be nil
}

func (e *OpError) Error() string {
	var where string
	if e.Key != "" {
		where = fmt.Sprintf(" %q", e.Key)
	}
	if e.Err == nil {
		return fmt.Sprintf("%s%s: %v", e.Op, where, e.Kind)
	}
	return fmt.Sprintf("%s%s: %v: %v", e.Op, where, e.Kind, e.Err)
}

func (e *OpError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func opErr(op, key string, kind, cause error) *OpError {
	return &OpError{Op: op, Key: key, Kind: kind, Err: cause}
}

// alwaysFatal reports kinds that bypass the error policy.
func alwaysFatal(err error) bool {
	return errors.Is(err, ErrInterrupted) ||
		errors.Is(err, ErrInvalidKey) ||
		errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrValueRetrieval)
}
