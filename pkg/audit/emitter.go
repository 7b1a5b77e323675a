package audit

import (
	"context"

	"github.com/crewdesk/crewdesk/pkg/observability"
)

// Emitter delivers audit events to a sink.
type Emitter interface {
	// Emit delivers a single event.
	Emit(ctx context.Context, event *Event) error

	// Close flushes and releases the sink.
	Close() error
}

// NoopEmitter discards every event. Used when auditing is disabled and in
// tests that do not assert on audit output.
type NoopEmitter struct{}

func (NoopEmitter) Emit(ctx context.Context, event *Event) error { return nil }
func (NoopEmitter) Close() error                                 { return nil }

// LogEmitter writes events to the structured logger.
type LogEmitter struct {
	logger *observability.Logger
}

// NewLogEmitter creates an emitter that logs each event at Info.
func NewLogEmitter(logger *observability.Logger) *LogEmitter {
	return &LogEmitter{logger: logger}
}

func (e *LogEmitter) Emit(ctx context.Context, event *Event) error {
	fields := map[string]interface{}{
		"audit_id":      event.ID,
		"actor_id":      event.ActorID,
		"action":        string(event.Action),
		"resource_type": string(event.ResourceType),
		"resource_id":   event.ResourceID,
	}
	if event.OrganizationID != nil {
		fields["organization_id"] = *event.OrganizationID
	}
	if event.RequestID != "" {
		fields["request_id"] = event.RequestID
	}
	e.logger.WithFields(fields).Info("audit event")
	return nil
}

func (e *LogEmitter) Close() error { return nil }

// MultiEmitter fans out each event to every underlying emitter. The first
// error is returned after all emitters have been attempted.
type MultiEmitter struct {
	emitters []Emitter
}

// NewMultiEmitter creates a fan-out emitter.
func NewMultiEmitter(emitters ...Emitter) *MultiEmitter {
	return &MultiEmitter{emitters: emitters}
}

func (m *MultiEmitter) Emit(ctx context.Context, event *Event) error {
	var firstErr error
	for _, e := range m.emitters {
		if err := e.Emit(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *MultiEmitter) Close() error {
	var firstErr error
	for _, e := range m.emitters {
		if err := e.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// BestEffort wraps an emitter so that failures are logged and counted but
// never returned. Audit emission must never roll back a committed decision.
type BestEffort struct {
	next    Emitter
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewBestEffort creates the best-effort wrapper. metrics may be nil.
func NewBestEffort(next Emitter, logger *observability.Logger, metrics *observability.Metrics) *BestEffort {
	return &BestEffort{next: next, logger: logger, metrics: metrics}
}

func (b *BestEffort) Emit(ctx context.Context, event *Event) error {
	if b.metrics != nil {
		b.metrics.AuditEventsTotal.WithLabelValues(string(event.Action)).Inc()
	}
	if err := b.next.Emit(ctx, event); err != nil {
		b.logger.WithError(err).WithFields(map[string]interface{}{
			"audit_id": event.ID,
			"action":   string(event.Action),
		}).Error("failed to emit audit event")
		if b.metrics != nil {
			b.metrics.AuditEmitErrorsTotal.Inc()
		}
	}
	return nil
}

func (b *BestEffort) Close() error { return b.next.Close() }
