package tiercache

import "errors"

// Decision is the outcome of classifying a failure.
type Decision int

const (
	// Swallow degrades the call: reads report a miss, writes are best effort.
	Swallow Decision = iota
	// Propagate returns the error to the caller.
	Propagate
)

func (d Decision) String() string {
	if d == Propagate {
		return "propagate"
	}
	return "swallow"
}

// ErrorPolicy decides which failures reach the caller. Interruption, invalid
// input and loader failures always propagate; remote timeouts, remote
// operation failures and serialization failures propagate only when
// Propagate is set.
type ErrorPolicy struct {
	Propagate bool
	Logger    Logger
}

func (p ErrorPolicy) Classify(err error) Decision {
	if err == nil {
		return Swallow
	}
	if alwaysFatal(err) || p.Propagate {
		return Propagate
	}
	return Swallow
}

// handle returns err when it must propagate and nil otherwise. Swallowed
// errors are logged at info with the operation and backend key.
func (p ErrorPolicy) handle(err error) error {
	if err == nil {
		return nil
	}
	if p.Classify(err) == Propagate {
		return err
	}
	if p.Logger != nil {
		f := Fields{"err": err.Error()}
		var oe *OpError
		if errors.As(err, &oe) {
			f["op"] = oe.Op
			f["key"] = oe.Key
		}
		p.Logger.Info("cache error swallowed", f)
	}
	return nil
}
