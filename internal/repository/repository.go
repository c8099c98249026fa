package repository

import (
	"context"
	"database/sql"
	"time"

	"thermal_printer/internal/models"
)

// Operators stores API operator accounts.
type Operators interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.Operator, error)
}

// PrinterRepo stores configured printer entries.
type PrinterRepo interface {
	Create(ctx context.Context, e models.PrinterEntry) error
	Get(ctx context.Context, id string) (*models.PrinterEntry, error)
	FindByAddress(ctx context.Context, ip string, port int) (*models.PrinterEntry, error)
	List(ctx context.Context) ([]models.PrinterEntry, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// EventRepo stores printer status history.
type EventRepo interface {
	Append(ctx context.Context, e models.StatusEvent) error
	List(ctx context.Context, entryID string, from, to time.Time, typ string) ([]models.StatusEvent, error)
}

type Repository struct {
	PrinterRepo PrinterRepo
	EventRepo   EventRepo
	Operators   Operators
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		PrinterRepo: NewPrinterSQLite(db),
		EventRepo:   NewEventSQLite(db),
		Operators:   NewOperatorRepository(db),
	}
}
