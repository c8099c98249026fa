package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"thermal_printer/internal/render"
)

// Network defaults.
const (
	DefaultDialTimeout = 3 * time.Second
	DefaultIOTimeout   = 10 * time.Second
)

// Network is a printer reached over raw TCP (port 9100 on most devices).
type Network struct {
	addr        string
	dialTimeout time.Duration
	ioTimeout   time.Duration
	dialer      func(ctx context.Context, network, addr string) (net.Conn, error)
}

// NewNetwork returns a transport for host:port.
func NewNetwork(host string, port int) (*Network, error) {
	if host == "" {
		return nil, errors.New("printer host is empty")
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("printer port %d out of range", port)
	}
	d := &net.Dialer{}
	return &Network{
		addr:        net.JoinHostPort(host, strconv.Itoa(port)),
		dialTimeout: DefaultDialTimeout,
		ioTimeout:   DefaultIOTimeout,
		dialer:      d.DialContext,
	}, nil
}

// NetworkFactory is a Factory building Network transports.
func NetworkFactory(host string, port int) (Transport, error) {
	return NewNetwork(host, port)
}

// Addr returns the dialed address.
func (n *Network) Addr() string { return n.addr }

func (n *Network) dial(ctx context.Context, op string) (net.Conn, error) {
	dctx, cancel := context.WithTimeout(ctx, n.dialTimeout)
	defer cancel()
	conn, err := n.dialer(dctx, "tcp", n.addr)
	if err != nil {
		return nil, &Error{Kind: KindUnreachable, Op: op, Err: err}
	}
	deadline := time.Now().Add(n.ioTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)
	return conn, nil
}

// IsOnline sends the real-time status query and reads the one-byte reply.
func (n *Network) IsOnline(ctx context.Context) (bool, error) {
	conn, err := n.dial(ctx, "status")
	if err != nil {
		return false, err
	}
	defer conn.Close()

	if _, err := conn.Write(statusQuery); err != nil {
		return false, Wrap("status", err)
	}
	reply := make([]byte, 1)
	if _, err := conn.Read(reply); err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return false, Protocol("status", "no reply to status query")
		}
		return false, Wrap("status", err)
	}
	return parseStatus(reply[0])
}

// Session opens a connection, resets the printer and runs fn against it.
func (n *Network) Session(ctx context.Context, fn func(render.Commander) error) error {
	conn, err := n.dial(ctx, "session")
	if err != nil {
		return err
	}
	enc := NewEncoder(conn)
	if err := enc.Init(); err != nil {
		_ = conn.Close()
		return err
	}
	if err := fn(enc); err != nil {
		_ = conn.Close()
		return err
	}
	if err := enc.Flush(); err != nil {
		_ = conn.Close()
		return err
	}
	if err := conn.Close(); err != nil {
		return Wrap("close", err)
	}
	return nil
}
