package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"thermal_printer/internal/models"
)

// ErrDuplicate is returned when a printer with the same address and port exists.
var ErrDuplicate = errors.New("printer already configured")

type PrinterSQLite struct {
	db *sql.DB
}

func NewPrinterSQLite(db *sql.DB) *PrinterSQLite {
	return &PrinterSQLite{db: db}
}

var _ PrinterRepo = (*PrinterSQLite)(nil)

const (
	printerColumns = `id, title, ip_address, port, created_at`

	insertPrinterSQL = `INSERT INTO printers (` + printerColumns + `) VALUES (?, ?, ?, ?, ?)`

	selectPrinterByIDSQL   = `SELECT ` + printerColumns + ` FROM printers WHERE id = ?`
	selectPrinterByAddrSQL = `SELECT ` + printerColumns + ` FROM printers WHERE ip_address = ? AND port = ?`
	selectPrintersSQL      = `SELECT ` + printerColumns + ` FROM printers ORDER BY created_at ASC, id ASC`

	deletePrinterSQL = `DELETE FROM printers WHERE id = ?`
)

// Create inserts e. CreatedAt defaults to now.
func (r *PrinterSQLite) Create(ctx context.Context, e models.PrinterEntry) error {
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, insertPrinterSQL, e.ID, e.Title, e.IPAddress, e.Port, created.UTC())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("insert printer %s: %w", e.Addr(), ErrDuplicate)
		}
		return fmt.Errorf("insert printer %s: %w", e.Addr(), err)
	}
	return nil
}

// Get returns the entry with id, or (nil, nil) if there is none.
func (r *PrinterSQLite) Get(ctx context.Context, id string) (*models.PrinterEntry, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, selectPrinterByIDSQL, id))
}

// FindByAddress returns the entry for ip:port, or (nil, nil) if there is none.
func (r *PrinterSQLite) FindByAddress(ctx context.Context, ip string, port int) (*models.PrinterEntry, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, selectPrinterByAddrSQL, ip, port))
}

func (r *PrinterSQLite) scanOne(row *sql.Row) (*models.PrinterEntry, error) {
	var e models.PrinterEntry
	if err := row.Scan(&e.ID, &e.Title, &e.IPAddress, &e.Port, &e.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select printer: %w", err)
	}
	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}

// List returns all entries, oldest first.
func (r *PrinterSQLite) List(ctx context.Context) ([]models.PrinterEntry, error) {
	rows, err := r.db.QueryContext(ctx, selectPrintersSQL)
	if err != nil {
		return nil, fmt.Errorf("list printers: %w", err)
	}
	defer rows.Close()

	out := make([]models.PrinterEntry, 0, 8)
	for rows.Next() {
		var e models.PrinterEntry
		if err := rows.Scan(&e.ID, &e.Title, &e.IPAddress, &e.Port, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan printer: %w", err)
		}
		e.CreatedAt = e.CreatedAt.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the entry and reports whether it existed.
func (r *PrinterSQLite) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, deletePrinterSQL, id)
	if err != nil {
		return false, fmt.Errorf("delete printer %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete printer %s: %w", id, err)
	}
	return n > 0, nil
}
