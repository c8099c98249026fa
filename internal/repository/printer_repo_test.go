package repository

import (
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"thermal_printer/internal/models"
)

func newPrinterMock(t *testing.T) (*PrinterSQLite, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewPrinterSQLite(db), mock
}

var printerCols = []string{"id", "title", "ip_address", "port", "created_at"}

func TestPrinterCreate(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	entry := models.PrinterEntry{ID: "e1", Title: "Thermal Printer (10.0.0.9)", IPAddress: "10.0.0.9", Port: 9100, CreatedAt: created}

	tests := []struct {
		name    string
		execErr error
		wantErr error
		anyErr  bool
	}{
		{name: "ok"},
		{name: "duplicate", execErr: errors.New("constraint failed: UNIQUE constraint failed: printers.ip_address, printers.port (2067)"), wantErr: ErrDuplicate},
		{name: "db error", execErr: errors.New("disk full"), anyErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newPrinterMock(t)
			exp := mock.ExpectExec(regexp.QuoteMeta(insertPrinterSQL)).
				WithArgs("e1", entry.Title, "10.0.0.9", 9100, created)
			if tc.execErr != nil {
				exp.WillReturnError(tc.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(1, 1))
			}

			err := repo.Create(ctx(t), entry)
			switch {
			case tc.wantErr != nil:
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("want %v, got %v", tc.wantErr, err)
				}
			case tc.anyErr:
				if err == nil || errors.Is(err, ErrDuplicate) {
					t.Fatalf("want plain error, got %v", err)
				}
			default:
				if err != nil {
					t.Fatalf("Create: %v", err)
				}
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("mock expectations: %v", err)
			}
		})
	}
}

func TestPrinterGet(t *testing.T) {
	t.Parallel()
	repo, mock := newPrinterMock(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(selectPrinterByIDSQL)).
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows(printerCols).AddRow("e1", "T", "10.0.0.9", 9100, created))
	mock.ExpectQuery(regexp.QuoteMeta(selectPrinterByIDSQL)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	got, err := repo.Get(ctx(t), "e1")
	if err != nil || got == nil {
		t.Fatalf("Get: %v %v", got, err)
	}
	if got.IPAddress != "10.0.0.9" || got.Port != 9100 || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected entry %+v", got)
	}

	got, err = repo.Get(ctx(t), "missing")
	if err != nil || got != nil {
		t.Fatalf("want (nil, nil), got (%v, %v)", got, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestPrinterFindByAddress(t *testing.T) {
	t.Parallel()
	repo, mock := newPrinterMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectPrinterByAddrSQL)).
		WithArgs("10.0.0.9", 9100).
		WillReturnRows(sqlmock.NewRows(printerCols).AddRow("e1", "T", "10.0.0.9", 9100, time.Now()))

	got, err := repo.FindByAddress(ctx(t), "10.0.0.9", 9100)
	if err != nil || got == nil || got.ID != "e1" {
		t.Fatalf("FindByAddress: %v %v", got, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestPrinterList(t *testing.T) {
	t.Parallel()
	repo, mock := newPrinterMock(t)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(selectPrintersSQL)).
		WillReturnRows(sqlmock.NewRows(printerCols).
			AddRow("e1", "A", "10.0.0.1", 9100, t0).
			AddRow("e2", "B", "10.0.0.2", 9101, t0.Add(time.Minute)))

	got, err := repo.List(ctx(t))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].ID != "e1" || got[1].Port != 9101 {
		t.Fatalf("unexpected entries %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestPrinterDelete(t *testing.T) {
	t.Parallel()
	repo, mock := newPrinterMock(t)

	mock.ExpectExec(regexp.QuoteMeta(deletePrinterSQL)).WithArgs("e1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(deletePrinterSQL)).WithArgs("e2").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(deletePrinterSQL)).WithArgs("e3").WillReturnError(errors.New("locked"))

	if ok, err := repo.Delete(ctx(t), "e1"); err != nil || !ok {
		t.Fatalf("Delete e1: %v %v", ok, err)
	}
	if ok, err := repo.Delete(ctx(t), "e2"); err != nil || ok {
		t.Fatalf("Delete e2: %v %v", ok, err)
	}
	if _, err := repo.Delete(ctx(t), "e3"); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}
