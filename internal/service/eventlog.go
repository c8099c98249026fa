package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"thermal_printer/internal/models"
	"thermal_printer/internal/repository"
)

// ErrInvalidFilter is returned for a history query that cannot match anything
// meaningful: an inverted time range or an unknown event type.
var ErrInvalidFilter = errors.New("invalid event filter")

var knownEventTypes = map[string]struct{}{
	models.EventOnline:     {},
	models.EventOffline:    {},
	models.EventConfigured: {},
	models.EventRemoved:    {},
}

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

// normalized returns f with both bounds in UTC and the type uppercased.
// Zero bounds stay zero.
func (f LogFilter) normalized() (LogFilter, error) {
	if !f.From.IsZero() {
		f.From = f.From.UTC()
	}
	if !f.To.IsZero() {
		f.To = f.To.UTC()
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return LogFilter{}, fmt.Errorf("%w: from %s is after to %s", ErrInvalidFilter, f.From, f.To)
	}

	f.Type = strings.ToUpper(strings.TrimSpace(f.Type))
	if _, ok := knownEventTypes[f.Type]; f.Type != "" && !ok {
		return LogFilter{}, fmt.Errorf("%w: unknown type %q", ErrInvalidFilter, f.Type)
	}
	return f, nil
}

// List returns the status history of entryID (all printers when empty),
// oldest first.
func (s *EventLogService) List(ctx context.Context, entryID string, f LogFilter) ([]models.StatusEvent, error) {
	f, err := f.normalized()
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, entryID, f.From, f.To, f.Type)
}
