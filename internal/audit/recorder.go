package audit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scrimsync/scrimsync/internal/platform/db"
)

// Recorder persists audit events. Record never reports failure to its
// caller: persistence and serialization errors are logged with full context
// and swallowed, so an audit outage cannot block or change the decision the
// event describes. Callers must treat the audit trail as best effort.
type Recorder struct {
	pool    *pgxpool.Pool
	logger  *slog.Logger
	timeout time.Duration

	detached sync.WaitGroup
}

// NewRecorder constructs a Recorder.
func NewRecorder(pool *pgxpool.Pool, logger *slog.Logger, timeout time.Duration) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Recorder{pool: pool, logger: logger, timeout: timeout}
}

// Record writes one audit event inside its own transaction. The transaction
// is scoped to the single write, never shared with the operation the event
// describes, so a partially written event is never visible.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if err := r.write(ctx, e); err != nil {
		r.logger.Error("audit write failed",
			slog.String("action", e.Action),
			slog.String("actor", e.ActorID),
			slog.String("guild", e.GuildID),
			slog.String("result", e.Result),
			slog.String("reason", e.Reason),
			slog.Any("error", err))
	}
}

// RecordDetached writes the event on a background goroutine with a fresh
// context, decoupling audit latency from the caller's response path. The
// write is at most once; its failure is observable only in logs.
func (r *Recorder) RecordDetached(e Entry) {
	r.detached.Add(1)
	go func() {
		defer r.detached.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		r.Record(ctx, e)
	}()
}

// Drain blocks until in-flight detached writes finish. Used on shutdown.
func (r *Recorder) Drain() {
	r.detached.Wait()
}

func (r *Recorder) write(ctx context.Context, e Entry) error {
	if r == nil || r.pool == nil {
		return errors.New("audit: recorder not initialised")
	}
	if e.Action == "" {
		return errors.New("audit: entry requires an action")
	}

	meta, err := json.Marshal(e.Meta)
	if err != nil {
		return err
	}

	event := Event{
		ID:        uuid.New(),
		Category:  Classify(e.Action),
		ActorID:   e.ActorID,
		ActorType: e.ActorType,
		GuildID:   e.GuildID,
		EntityRef: e.EntityRef,
		Action:    e.Action,
		Result:    e.Result,
		Reason:    e.Reason,
		CreatedAt: time.Now().UTC(),
	}

	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO audit_events (id, category, actor_id, actor_type, guild_id, entity_ref, action, result, reason, meta, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			event.ID, string(event.Category), event.ActorID, event.ActorType, event.GuildID,
			event.EntityRef, event.Action, event.Result, event.Reason, meta, event.CreatedAt)
		return err
	})
}
