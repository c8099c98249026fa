package service

import (
	"context"

	"thermal_printer/internal/models"
)

type MonitoringService struct {
	registry *Registry
}

func NewMonitoringService(registry *Registry) *MonitoringService {
	return &MonitoringService{registry: registry}
}

// GetStatus returns the last known status of one printer.
func (s *MonitoringService) GetStatus(_ context.Context, entryID string) (models.PrinterStatus, error) {
	c, ok := s.registry.Get(entryID)
	if !ok {
		return models.PrinterStatus{}, ErrPrinterNotFound
	}
	return c.Snapshot(), nil
}

// ListStatus returns the status of every registered printer.
func (s *MonitoringService) ListStatus(_ context.Context) []models.PrinterStatus {
	all := s.registry.All()
	out := make([]models.PrinterStatus, 0, len(all))
	for _, c := range all {
		out = append(out, c.Snapshot())
	}
	return out
}

// Refresh queries the printer now and returns the new status.
func (s *MonitoringService) Refresh(ctx context.Context, entryID string) (models.PrinterStatus, error) {
	c, ok := s.registry.Get(entryID)
	if !ok {
		return models.PrinterStatus{}, ErrPrinterNotFound
	}
	c.UpdateStatus(ctx)
	return c.Snapshot(), nil
}
