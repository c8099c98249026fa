package service

import (
	"context"
	"time"

	"thermal_printer/internal/logger"
	"thermal_printer/internal/models"
	"thermal_printer/internal/repository"
)

// StatusPublisher pushes status snapshots to an external consumer.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, st models.PrinterStatus) error
}

const recordTimeout = 5 * time.Second

// StatusRecorder turns controller status refreshes into history events and
// published snapshots.
type StatusRecorder struct {
	events    repository.EventRepo
	publisher StatusPublisher
	log       *logger.Logger
}

// NewStatusRecorder returns a recorder. publisher may be nil.
func NewStatusRecorder(events repository.EventRepo, publisher StatusPublisher, log *logger.Logger) *StatusRecorder {
	return &StatusRecorder{events: events, publisher: publisher, log: logger.OrNop(log)}
}

// Observe is a device.Observer.
func (r *StatusRecorder) Observe(prev, cur models.PrinterStatus) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if prev.State != cur.State {
		typ, desc := models.EventOffline, "Printer went offline"
		if cur.Online() {
			typ, desc = models.EventOnline, "Printer went online"
		}
		ev := models.StatusEvent{
			EntryID:     cur.EntryID,
			Type:        typ,
			Description: desc,
			Metadata: map[string]any{
				"from":       prev.State,
				"to":         cur.State,
				"ip_address": cur.IPAddress,
			},
		}
		if cur.LastUpdated != nil {
			ev.OccurredAt = *cur.LastUpdated
		}
		r.Record(ctx, ev)
	}
	r.Publish(ctx, cur)
}

// Record appends e, logging failures instead of returning them.
func (r *StatusRecorder) Record(ctx context.Context, e models.StatusEvent) {
	if r.events == nil {
		return
	}
	if err := r.events.Append(ctx, e); err != nil {
		r.log.Warnw("status_event_append_failed", "entry_id", e.EntryID, "type", e.Type, "err", err)
	}
}

// Publish sends st to the publisher, if any.
func (r *StatusRecorder) Publish(ctx context.Context, st models.PrinterStatus) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.PublishStatus(ctx, st); err != nil {
		r.log.Warnw("status_publish_failed", "entry_id", st.EntryID, "err", err)
	}
}
