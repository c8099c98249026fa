package service

import (
	"context"
	"errors"
	"fmt"

	"thermal_printer/internal/logger"
	"thermal_printer/internal/models"
	"thermal_printer/internal/templates"
)

var (
	ErrPrinterNotFound = errors.New("printer not found")
	// ErrPrintFailed covers every device-side failure: offline printer,
	// dropped connection, rejected command.
	ErrPrintFailed = errors.New("failed to print content")
	ErrEmptyJob    = errors.New("either content or template is required")
)

type PrintingService struct {
	registry  *Registry
	templates *templates.Registry
	log       *logger.Logger
}

func NewPrintingService(registry *Registry, tpl *templates.Registry, log *logger.Logger) *PrintingService {
	return &PrintingService{registry: registry, templates: tpl, log: logger.OrNop(log)}
}

// Print resolves req to printable content and prints it on the entry's
// printer. Template errors wrap templates.ErrMissingPlaceholder or
// templates.ErrMalformed and never reach the printer.
func (s *PrintingService) Print(ctx context.Context, entryID string, req models.PrintRequest) error {
	c, ok := s.registry.Get(entryID)
	if !ok {
		return ErrPrinterNotFound
	}

	content, err := s.resolve(req)
	if err != nil {
		s.log.Warnw("print_request_rejected", "entry_id", entryID, "template", req.Template, "err", err)
		return err
	}

	if !c.PrintContent(ctx, content) {
		s.log.Warnw("print_failed", "entry_id", entryID, "state", c.Snapshot().State)
		return ErrPrintFailed
	}
	return nil
}

// resolve picks the content to print. A named template always wins over
// Content, even when Data is empty.
func (s *PrintingService) resolve(req models.PrintRequest) (string, error) {
	if req.Template == "" {
		if req.Content == "" {
			return "", ErrEmptyJob
		}
		return req.Content, nil
	}
	data := req.Data
	if data == nil {
		data = map[string]any{}
	}
	content, err := s.templates.Render(req.Template, data)
	if err != nil {
		return "", fmt.Errorf("render template %q: %w", req.Template, err)
	}
	return content, nil
}

// Templates lists the known template names.
func (s *PrintingService) Templates() []string {
	return s.templates.Names()
}
