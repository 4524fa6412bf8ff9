package errcode

import "errors"

// Code is a stable, log-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK Code = "ok"

	// Storage lifecycle
	MediaAbsent        Code = "media_absent"
	MediaUninitialized Code = "media_uninitialized"
	MountFailed        Code = "mount_failed"
	NoFilesystem       Code = "no_filesystem"
	UnmountFailed      Code = "unmount_failed"

	// Session
	NameExhausted Code = "name_exhausted"
	CreateFailed  Code = "create_failed"
	WriteFailed   Code = "write_failed"

	// Control plane
	InvalidState  Code = "invalid_state"
	SensorRead    Code = "sensor_read"
	InvalidConfig Code = "invalid_config"

	Error Code = "error" // generic fallback
)

// E keeps an operation name and a cause next to the code.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, errcode.WriteFailed) match a wrapped *E.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Wrap attaches code and operation to a cause. A nil cause still yields an
// error carrying the code.
func Wrap(c Code, op string, err error) error {
	return &E{C: c, Op: op, Err: err}
}

// Of extracts the outermost Code from an error chain, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	type coder interface{ Code() Code }
	for e := err; e != nil; e = errors.Unwrap(e) {
		switch x := e.(type) {
		case Code:
			return x
		case coder:
			return x.Code()
		}
	}
	return Error
}
