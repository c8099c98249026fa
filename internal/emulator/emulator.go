// Package emulator runs a fake network thermal printer that speaks the ESC/POS
// subset used by this service. It answers status queries and records every
// printed job.
package emulator

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"thermal_printer/internal/logger"
)

// Status reply bytes for DLE EOT 1.
const (
	statusOnline  = 0x12
	statusOffline = 0x1A
)

const readBufferSize = 4096

// Emulator is a TCP printer emulator.
type Emulator struct {
	address  string
	listener net.Listener
	log      *logger.Logger

	mu      sync.Mutex
	running bool
	online  bool
	jobs    []Job
	onJob   func(Job)
	conns   map[net.Conn]struct{}

	wg sync.WaitGroup
}

// New returns an emulator that will listen on address (use "127.0.0.1:0" for
// an ephemeral port). It starts online.
func New(address string, log *logger.Logger) *Emulator {
	return &Emulator{
		address: address,
		online:  true,
		conns:   make(map[net.Conn]struct{}),
		log:     logger.OrNop(log).Named("emulator"),
	}
}

// Start listens and serves connections in the background.
func (e *Emulator) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return errors.New("emulator already running")
	}
	ln, err := net.Listen("tcp", e.address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", e.address, err)
	}
	e.listener = ln
	e.running = true
	e.log.Infow("emulator_listening", "addr", ln.Addr().String())

	e.wg.Add(1)
	go e.acceptConnections()
	return nil
}

// Stop closes the listener and every open connection, then waits for the
// handlers to return.
func (e *Emulator) Stop() error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = false
	ln := e.listener
	for conn := range e.conns {
		_ = conn.Close()
	}
	e.mu.Unlock()

	err := ln.Close()
	e.wg.Wait()
	e.log.Infow("emulator_stopped")
	return err
}

// Addr returns the address the emulator listens on, or the configured address
// before Start.
func (e *Emulator) Addr() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listener != nil {
		return e.listener.Addr().String()
	}
	return e.address
}

// IsRunning reports whether the emulator accepts connections.
func (e *Emulator) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// SetOnline changes the status reported to DLE EOT queries.
func (e *Emulator) SetOnline(online bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.online = online
}

// OnJob registers fn to be called after every received job.
func (e *Emulator) OnJob(fn func(Job)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onJob = fn
}

// Jobs returns the jobs received so far.
func (e *Emulator) Jobs() []Job {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Job, len(e.jobs))
	copy(out, e.jobs)
	return out
}

func (e *Emulator) acceptConnections() {
	defer e.wg.Done()
	for {
		conn, err := e.listener.Accept()
		if err != nil {
			if !e.IsRunning() {
				return
			}
			e.log.Warnw("emulator_accept_failed", "err", err)
			continue
		}
		if !e.track(conn) {
			_ = conn.Close()
			return
		}
		e.wg.Add(1)
		go e.handleConnection(conn)
	}
}

// track registers conn so Stop can close it. It reports false once the
// emulator is stopping.
func (e *Emulator) track(conn net.Conn) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return false
	}
	e.conns[conn] = struct{}{}
	return true
}

func (e *Emulator) untrack(conn net.Conn) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.conns, conn)
}

func (e *Emulator) statusByte() byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.online {
		return statusOnline
	}
	return statusOffline
}

func (e *Emulator) handleConnection(conn net.Conn) {
	defer e.wg.Done()
	defer e.untrack(conn)
	defer conn.Close()

	client := conn.RemoteAddr().String()
	var (
		dec     decoder
		pending []byte
		buf     = make([]byte, readBufferSize)
	)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			used, queries := dec.feed(pending)
			pending = pending[used:]
			for i := 0; i < queries; i++ {
				if _, werr := conn.Write([]byte{e.statusByte()}); werr != nil {
					e.log.Warnw("emulator_status_reply_failed", "client", client, "err", werr)
				}
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				e.log.Warnw("emulator_read_failed", "client", client, "err", err)
			}
			break
		}
	}
	e.finishJob(&dec, client)
}

func (e *Emulator) finishJob(dec *decoder, client string) {
	job, ok := dec.job(time.Now().UTC())
	if !ok {
		return
	}
	e.mu.Lock()
	e.jobs = append(e.jobs, job)
	fn := e.onJob
	e.mu.Unlock()

	e.log.Infow("emulator_job_received", "client", client, "bytes", len(job.Raw), "qr_codes", len(job.QRCodes), "cuts", job.Cuts)
	if fn != nil {
		fn(job)
	}
}
