package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"thermal_printer/internal/device"
	"thermal_printer/internal/models"
	"thermal_printer/internal/render"
	"thermal_printer/internal/repository"
	"thermal_printer/internal/transport"
)

// stubPrinter is an in-memory transport.Transport.
type stubPrinter struct {
	mu        sync.Mutex
	online    bool
	statusErr error
	printErr  error
	delay     time.Duration
	queries   int
	sessions  int
	text      strings.Builder
}

func (p *stubPrinter) IsOnline(ctx context.Context) (bool, error) {
	p.mu.Lock()
	p.queries++
	delay, online, err := p.delay, p.online, p.statusErr
	p.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return false, transport.Wrap("status", ctx.Err())
		}
	}
	return online, err
}

func (p *stubPrinter) Session(_ context.Context, fn func(render.Commander) error) error {
	p.mu.Lock()
	p.sessions++
	p.mu.Unlock()
	return fn(p)
}

func (p *stubPrinter) Text(s string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.printErr != nil {
		return p.printErr
	}
	p.text.WriteString(s)
	return nil
}

func (p *stubPrinter) SetStyle(render.Align, render.Font, int, int) error { return nil }
func (p *stubPrinter) QR(string, int) error                               { return nil }
func (p *stubPrinter) Cut() error                                         { return nil }

func (p *stubPrinter) setOnline(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online = v
	if v {
		p.statusErr = nil
	} else {
		p.statusErr = transport.Wrap("status", syscall.ECONNREFUSED)
	}
}

func (p *stubPrinter) Printed() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.text.String()
}

func (p *stubPrinter) Counts() (queries, sessions int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queries, p.sessions
}

// stubFactory hands out one stubPrinter per host.
type stubFactory struct {
	mu       sync.Mutex
	printers map[string]*stubPrinter
	err      error
	panicMsg string
	builds   int
}

func newStubFactory() *stubFactory {
	return &stubFactory{printers: make(map[string]*stubPrinter)}
}

func (f *stubFactory) printer(host string) *stubPrinter {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.printers[host]
	if !ok {
		p = &stubPrinter{online: true}
		f.printers[host] = p
	}
	return p
}

func (f *stubFactory) Build(host string, _ int) (transport.Transport, error) {
	f.mu.Lock()
	f.builds++
	err, msg := f.err, f.panicMsg
	f.mu.Unlock()
	if msg != "" {
		panic(msg)
	}
	if err != nil {
		return nil, err
	}
	return f.printer(host), nil
}

// memPrinterRepo is an in-memory repository.PrinterRepo.
type memPrinterRepo struct {
	mu      sync.Mutex
	entries map[string]models.PrinterEntry
	listErr error
}

var _ repository.PrinterRepo = (*memPrinterRepo)(nil)

func newMemPrinterRepo(entries ...models.PrinterEntry) *memPrinterRepo {
	r := &memPrinterRepo{entries: make(map[string]models.PrinterEntry)}
	for _, e := range entries {
		r.entries[e.ID] = e
	}
	return r
}

func (r *memPrinterRepo) Create(_ context.Context, e models.PrinterEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.entries {
		if x.IPAddress == e.IPAddress && x.Port == e.Port {
			return repository.ErrDuplicate
		}
	}
	r.entries[e.ID] = e
	return nil
}

func (r *memPrinterRepo) Get(_ context.Context, id string) (*models.PrinterEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		return &e, nil
	}
	return nil, nil
}

func (r *memPrinterRepo) FindByAddress(_ context.Context, ip string, port int) (*models.PrinterEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.IPAddress == ip && e.Port == port {
			return &e, nil
		}
	}
	return nil, nil
}

func (r *memPrinterRepo) List(context.Context) ([]models.PrinterEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]models.PrinterEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memPrinterRepo) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	delete(r.entries, id)
	return ok, nil
}

// fakePublisher records published snapshots.
type fakePublisher struct {
	mu   sync.Mutex
	seen []models.PrinterStatus
	err  error
}

func (p *fakePublisher) PublishStatus(_ context.Context, st models.PrinterStatus) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, st)
	return p.err
}

func (p *fakePublisher) Seen() []models.PrinterStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.PrinterStatus(nil), p.seen...)
}

var errBoom = errors.New("boom")

func entryFor(id, ip string) models.PrinterEntry {
	return models.PrinterEntry{ID: id, Title: models.EntryTitle(ip), IPAddress: ip, Port: models.DefaultPrinterPort}
}

// onlineController returns a registered controller that has seen one
// successful status refresh.
func onlineController(reg *Registry, id string, p *stubPrinter) *device.Controller {
	c := device.NewController(entryFor(id, "10.0.0."+id), p, nil, device.Options{})
	c.UpdateStatus(context.Background())
	reg.Add(c)
	return c
}
