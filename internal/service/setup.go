package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"thermal_printer/internal/device"
	"thermal_printer/internal/logger"
	"thermal_printer/internal/models"
	"thermal_printer/internal/repository"
	"thermal_printer/internal/transport"
)

// Setup form errors. Their messages are the codes shown to the user.
var (
	ErrCannotConnect     = errors.New("cannot_connect")
	ErrUnknown           = errors.New("unknown")
	ErrAlreadyConfigured = errors.New("already_configured")
	ErrInvalidAddress    = errors.New("invalid_address")
)

// ErrEntryNotFound is returned for an entry ID that is not configured.
var ErrEntryNotFound = errors.New("printer entry not found")

// FormErrorCode returns the form error code carried by err, if any.
func FormErrorCode(err error) (string, bool) {
	for _, e := range []error{ErrCannotConnect, ErrUnknown, ErrAlreadyConfigured, ErrInvalidAddress} {
		if errors.Is(err, e) {
			return e.Error(), true
		}
	}
	return "", false
}

const restoreConcurrency = 4

// SetupConfig configures a SetupService.
type SetupConfig struct {
	Factory     transport.Factory
	DefaultPort int
	Timeout     time.Duration
	Log         *logger.Logger
}

type SetupService struct {
	repo     repository.PrinterRepo
	registry *Registry
	recorder *StatusRecorder
	factory  transport.Factory
	port     int
	timeout  time.Duration
	log      *logger.Logger
	now      func() time.Time
}

func NewSetupService(repo repository.PrinterRepo, registry *Registry, recorder *StatusRecorder, cfg SetupConfig) *SetupService {
	s := &SetupService{
		repo:     repo,
		registry: registry,
		recorder: recorder,
		factory:  cfg.Factory,
		port:     cfg.DefaultPort,
		timeout:  cfg.Timeout,
		log:      logger.OrNop(cfg.Log),
		now:      time.Now,
	}
	if s.factory == nil {
		s.factory = transport.NetworkFactory
	}
	if s.port == 0 {
		s.port = models.DefaultPrinterPort
	}
	return s
}

func (s *SetupService) normalize(p EntryParams) (EntryParams, error) {
	p.IPAddress = strings.TrimSpace(p.IPAddress)
	if p.IPAddress == "" {
		return p, ErrInvalidAddress
	}
	if p.Port == 0 {
		p.Port = s.port
	}
	if p.Port < 1 || p.Port > 65535 {
		return p, fmt.Errorf("%w: port %d", ErrInvalidAddress, p.Port)
	}
	return p, nil
}

// Validate checks that the printer answers a status query.
func (s *SetupService) Validate(ctx context.Context, p EntryParams) error {
	p, err := s.normalize(p)
	if err != nil {
		return err
	}
	return s.validate(ctx, models.PrinterEntry{IPAddress: p.IPAddress, Port: p.Port, Title: models.EntryTitle(p.IPAddress)})
}

// validate runs one status refresh on a throwaway controller. Unreachable
// printers give ErrCannotConnect, anything else ErrUnknown.
func (s *SetupService) validate(ctx context.Context, entry models.PrinterEntry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("setup_validation_panic", "printer", entry.Addr(), "panic", r)
			err = fmt.Errorf("%w: %v", ErrUnknown, r)
		}
	}()

	t, err := s.factory(entry.IPAddress, entry.Port)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnknown, err)
	}
	c := device.NewController(entry, t, s.log, device.Options{Timeout: s.timeout})
	if !c.UpdateStatus(ctx) {
		return ErrCannotConnect
	}
	return nil
}

// Create validates and persists a new entry, then registers its controller.
func (s *SetupService) Create(ctx context.Context, p EntryParams) (models.PrinterEntry, error) {
	p, err := s.normalize(p)
	if err != nil {
		return models.PrinterEntry{}, err
	}

	existing, err := s.repo.FindByAddress(ctx, p.IPAddress, p.Port)
	if err != nil {
		return models.PrinterEntry{}, fmt.Errorf("%w: %v", ErrUnknown, err)
	}
	if existing != nil {
		return models.PrinterEntry{}, ErrAlreadyConfigured
	}

	entry := models.PrinterEntry{
		ID:        uuid.NewString(),
		Title:     models.EntryTitle(p.IPAddress),
		IPAddress: p.IPAddress,
		Port:      p.Port,
		CreatedAt: s.now().UTC(),
	}
	if err := s.validate(ctx, entry); err != nil {
		s.log.Warnw("printer_setup_rejected", "printer", entry.Addr(), "err", err)
		return models.PrinterEntry{}, err
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.PrinterEntry{}, ErrAlreadyConfigured
		}
		return models.PrinterEntry{}, fmt.Errorf("%w: %v", ErrUnknown, err)
	}

	s.recorder.Record(ctx, models.StatusEvent{
		EntryID:     entry.ID,
		OccurredAt:  entry.CreatedAt,
		Type:        models.EventConfigured,
		Description: "Printer configured",
		Metadata:    map[string]any{"ip_address": entry.IPAddress, "port": entry.Port},
	})
	if _, err := s.register(ctx, entry); err != nil {
		return models.PrinterEntry{}, fmt.Errorf("%w: %v", ErrUnknown, err)
	}
	s.log.Infow("printer_configured", "entry_id", entry.ID, "printer", entry.Addr())
	return entry, nil
}

// register builds the long-lived controller for entry, adds it to the
// registry and runs its first status refresh.
func (s *SetupService) register(ctx context.Context, entry models.PrinterEntry) (*device.Controller, error) {
	t, err := s.factory(entry.IPAddress, entry.Port)
	if err != nil {
		return nil, err
	}
	c := device.NewController(entry, t, s.log, device.Options{
		Timeout:  s.timeout,
		Observer: s.recorder.Observe,
	})
	s.registry.Add(c)
	c.UpdateStatus(ctx)
	return c, nil
}

// Restore registers a controller for every persisted entry and returns how
// many were registered. Entries whose transport cannot be built are skipped.
func (s *SetupService) Restore(ctx context.Context) (int, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list printers: %w", err)
	}

	var g errgroup.Group
	g.SetLimit(restoreConcurrency)
	for _, e := range entries {
		g.Go(func() error {
			if _, err := s.register(ctx, e); err != nil {
				s.log.Errorw("printer_restore_failed", "entry_id", e.ID, "printer", e.Addr(), "err", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	n := 0
	for _, e := range entries {
		if _, ok := s.registry.Get(e.ID); ok {
			n++
		}
	}
	s.log.Infow("printers_restored", "count", n, "configured", len(entries))
	return n, nil
}

// Remove unregisters and deletes the entry.
func (s *SetupService) Remove(ctx context.Context, entryID string) error {
	existed, err := s.repo.Delete(ctx, entryID)
	if err != nil {
		return err
	}
	registered := s.registry.Remove(entryID)
	if !existed && !registered {
		return ErrEntryNotFound
	}

	s.recorder.Record(ctx, models.StatusEvent{
		EntryID:     entryID,
		OccurredAt:  s.now().UTC(),
		Type:        models.EventRemoved,
		Description: "Printer removed",
	})
	s.log.Infow("printer_removed", "entry_id", entryID)
	return nil
}

func (s *SetupService) List(ctx context.Context) ([]models.PrinterEntry, error) {
	return s.repo.List(ctx)
}

// Get returns the stored entry with entryID.
func (s *SetupService) Get(ctx context.Context, entryID string) (models.PrinterEntry, error) {
	e, err := s.repo.Get(ctx, entryID)
	if err != nil {
		return models.PrinterEntry{}, err
	}
	if e == nil {
		return models.PrinterEntry{}, ErrEntryNotFound
	}
	return *e, nil
}
