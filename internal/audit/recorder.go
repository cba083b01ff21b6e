// AngelaMos | 2026
// recorder.go

package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"

	"github.com/carterperez-dev/tenant-platform/internal/config"
	"github.com/carterperez-dev/tenant-platform/internal/metrics"
)

// Sink accepts audit events. Implementations must not block the caller and
// never report failure back to it.
type Sink interface {
	Record(ctx context.Context, ev Event)
}

// Discard drops every event.
var Discard Sink = discard{}

type discard struct{}

func (discard) Record(context.Context, Event) {}

// Recorder writes events on a single background goroutine so a slow or
// failing audit table never delays the operation being audited.
type Recorder struct {
	repo    Repository
	queue   chan Entry
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewRecorder(
	repo Repository,
	cfg config.AuditConfig,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Recorder {
	size := cfg.BufferSize
	if size <= 0 {
		size = 1024
	}
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		repo:    repo,
		queue:   make(chan Entry, size),
		timeout: timeout,
		logger:  logger,
		metrics: m,
		done:    make(chan struct{}),
	}

	go r.run()
	return r
}

func (r *Recorder) Record(_ context.Context, ev Event) {
	entry, err := newEntry(ev)
	if err != nil {
		r.logger.Warn("audit event not encodable",
			"action", ev.Action,
			"error", err,
		)
		r.metrics.ObserveAudit("failed")
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.drop(entry, "recorder closed")
		return
	}

	select {
	case r.queue <- entry:
		r.metrics.SetAuditQueueDepth(len(r.queue))
	default:
		r.drop(entry, "queue full")
	}
}

// Close stops accepting events and waits for queued ones to be written or
// for ctx to expire.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) run() {
	defer close(r.done)

	for entry := range r.queue {
		r.write(entry)
		r.metrics.SetAuditQueueDepth(len(r.queue))
	}
}

func (r *Recorder) write(entry Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.repo.Insert(ctx, &entry); err != nil {
		r.logger.Warn("audit write failed",
			"action", entry.Action,
			"entry_id", entry.ID,
			"error", err,
		)
		r.metrics.ObserveAudit("failed")
		return
	}

	r.metrics.ObserveAudit("written")
}

func (r *Recorder) drop(entry Entry, reason string) {
	r.logger.Warn("audit entry dropped",
		"action", entry.Action,
		"entry_id", entry.ID,
		"reason", reason,
	)
	r.metrics.ObserveAudit("dropped")
}

// newEntry stores non-user actors such as the operator key under
// detail["actor"], since actor_id only holds user ids.
func newEntry(ev Event) (Entry, error) {
	detail := make(map[string]any, len(ev.Detail)+1)
	maps.Copy(detail, ev.Detail)

	actorID := ev.ActorID
	if actorID != "" && uuid.Validate(actorID) != nil {
		detail["actor"] = actorID
		actorID = ""
	}

	raw, err := json.Marshal(detail)
	if err != nil {
		return Entry{}, err
	}

	return Entry{
		ID:       uuid.New().String(),
		ActorID:  optional(actorID),
		TenantID: optional(ev.TenantID),
		Action:   string(ev.Action),
		Detail:   types.JSONText(raw),
	}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
