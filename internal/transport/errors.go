package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// Kind classifies a transport failure.
type Kind int

const (
	// KindOther is any failure that is neither of the kinds below.
	KindOther Kind = iota
	// KindUnreachable means the printer could not be reached or the link
	// dropped: dial failures, resets, timeouts.
	KindUnreachable
	// KindProtocol means the printer answered, but not as expected.
	KindProtocol
)

func (k Kind) String() string {
	switch k {
	case KindUnreachable:
		return "unreachable"
	case KindProtocol:
		return "protocol"
	default:
		return "other"
	}
}

// Error is the only error type transports return.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err. Errors that are not *Error are KindOther.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindOther
}

// Wrap turns err into an *Error for op, classifying network failures as
// unreachable. Existing *Error values are returned unchanged.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return err
	}
	return &Error{Kind: classify(err), Op: op, Err: err}
}

// Protocol builds a KindProtocol error.
func Protocol(op string, format string, args ...any) error {
	return &Error{Kind: KindProtocol, Op: op, Err: fmt.Errorf(format, args...)}
}

func classify(err error) Kind {
	var netErr net.Error
	var opErr *net.OpError
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH):
		return KindUnreachable
	case errors.As(err, &opErr):
		return KindUnreachable
	case errors.As(err, &netErr) && netErr.Timeout():
		return KindUnreachable
	default:
		return KindOther
	}
}
