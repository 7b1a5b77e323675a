package recall

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/crewdesk/crewdesk/pkg/audit"
	"github.com/crewdesk/crewdesk/pkg/observability"
)

// Service applies recall transitions and resolves message views.
type Service struct {
	store   MessageStore
	audit   audit.Emitter
	logger  *observability.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewService creates the recall service. audit and metrics may be nil.
func NewService(store MessageStore, emitter audit.Emitter, logger *observability.Logger, metrics *observability.Metrics) *Service {
	if emitter == nil {
		emitter = audit.NoopEmitter{}
	}
	return &Service{
		store:   store,
		audit:   emitter,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Recall withdraws a message. Only the sender may recall, and only once; a
// second recall fails with AlreadyRecalled regardless of the requested scope.
func (s *Service) Recall(ctx context.Context, actorID, messageID int64, scope Scope) (*Message, error) {
	if !scope.Recallable() {
		return nil, fmt.Errorf("invalid recall scope %q", scope)
	}

	m, err := s.store.Get(ctx, messageID)
	if err != nil {
		return nil, storeError(err)
	}
	if m == nil {
		return nil, newError(KindMessageNotFound, "message %d not found", messageID)
	}
	if m.SenderID != actorID {
		return nil, newError(KindNotSender, "user %d is not the sender of message %d", actorID, messageID)
	}
	if m.Scope != ScopeNone {
		return nil, newError(KindAlreadyRecalled, "message %d was already recalled with scope %s", messageID, m.Scope)
	}

	at := s.now().UTC()
	applied, err := s.store.MarkRecalled(ctx, messageID, scope, at)
	if err != nil {
		return nil, storeError(err)
	}
	if !applied {
		// Lost the race against a concurrent recall.
		return nil, newError(KindAlreadyRecalled, "message %d was already recalled", messageID)
	}

	before := m.Scope
	m.Scope = scope
	m.RecalledAt = &at

	if s.metrics != nil {
		s.metrics.ObserveTransition("message_recall", nil)
	}
	event := audit.NewEvent(actorID, audit.ActionMessageRecall, audit.ResourceTypeMessage,
		strconv.FormatInt(messageID, 10)).
		WithChange(
			map[string]any{"recall_scope": string(before)},
			map[string]any{"recall_scope": string(scope)},
		)
	if err := s.audit.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WithError(err).WithField("message_id", messageID).Warn("audit emission failed")
	}
	return m, nil
}

// View returns the message as the viewer should see it. Hidden bodies are
// replaced with the tombstone placeholder; the returned copy never leaks the
// original body when it is not visible.
func (s *Service) View(ctx context.Context, viewerID, messageID int64) (*Message, error) {
	m, err := s.store.Get(ctx, messageID)
	if err != nil {
		return nil, storeError(err)
	}
	if m == nil {
		return nil, newError(KindMessageNotFound, "message %d not found", messageID)
	}
	view := *m
	view.Body = Render(viewerID, m)
	return &view, nil
}
