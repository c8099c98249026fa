package service

import (
	"context"
	"time"

	"thermal_printer/internal/logger"
	"thermal_printer/internal/models"
	"thermal_printer/internal/repository"
	"thermal_printer/internal/templates"
	"thermal_printer/internal/transport"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Setup manages configured printer entries: validation, creation, removal.
type Setup interface {
	Validate(ctx context.Context, p EntryParams) error
	Create(ctx context.Context, p EntryParams) (models.PrinterEntry, error)
	Restore(ctx context.Context) (int, error)
	Remove(ctx context.Context, entryID string) error
	List(ctx context.Context) ([]models.PrinterEntry, error)
	Get(ctx context.Context, entryID string) (models.PrinterEntry, error)
}

// Printing resolves print requests and sends them to a printer.
type Printing interface {
	Print(ctx context.Context, entryID string, req models.PrintRequest) error
	Templates() []string
}

// Monitoring exposes read-only printer status.
type Monitoring interface {
	GetStatus(ctx context.Context, entryID string) (models.PrinterStatus, error)
	ListStatus(ctx context.Context) []models.PrinterStatus
	Refresh(ctx context.Context, entryID string) (models.PrinterStatus, error)
}

// EventLog exposes the status history with filtering.
type EventLog interface {
	List(ctx context.Context, entryID string, f LogFilter) ([]models.StatusEvent, error)
}

// Poller refreshes every printer's status on an interval.
// Stop via context cancellation.
type Poller interface {
	Run(ctx context.Context, interval time.Duration)
	RefreshAll(ctx context.Context)
}

type Service struct {
	Setup
	Printing
	Monitoring
	EventLog
	Poller
	Authorization

	Registry *Registry
}

// Deps are the non-repository collaborators of the services.
type Deps struct {
	Factory         transport.Factory
	Templates       *templates.Registry
	Publisher       StatusPublisher
	Log             *logger.Logger
	Auth            AuthConfig
	DefaultPort     int
	PrinterTimeout  time.Duration
	PollConcurrency int
}

// NewService wires the repository layer and deps into concrete services
// sharing one printer registry.
func NewService(repos *repository.Repository, deps Deps) *Service {
	log := logger.OrNop(deps.Log)
	registry := NewRegistry()
	recorder := NewStatusRecorder(repos.EventRepo, deps.Publisher, log)
	tpl := deps.Templates
	if tpl == nil {
		tpl, _ = templates.NewRegistry(nil)
	}

	return &Service{
		Setup: NewSetupService(repos.PrinterRepo, registry, recorder, SetupConfig{
			Factory:     deps.Factory,
			DefaultPort: deps.DefaultPort,
			Timeout:     deps.PrinterTimeout,
			Log:         log,
		}),
		Printing:      NewPrintingService(registry, tpl, log),
		Monitoring:    NewMonitoringService(registry),
		EventLog:      NewEventLogService(repos.EventRepo),
		Poller:        NewPollerService(registry, deps.PollConcurrency, log),
		Authorization: NewAuthService(repos.Operators, deps.Auth),
		Registry:      registry,
	}
}
