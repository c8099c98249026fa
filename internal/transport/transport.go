// Package transport talks to network thermal printers. Every error it returns
// is a *Error carrying one of a closed set of kinds.
package transport

import (
	"context"

	"thermal_printer/internal/render"
)

// Transport is the connection to one printer.
type Transport interface {
	// IsOnline asks the printer whether it is ready to print.
	IsOnline(ctx context.Context) (bool, error)
	// Session opens a connection, passes its command API to fn and closes the
	// connection when fn returns. The error from fn is returned as is.
	Session(ctx context.Context, fn func(render.Commander) error) error
}

// Factory builds the transport for a printer address.
type Factory func(host string, port int) (Transport, error)
