package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TimelineFilters narrows a timeline query.
type TimelineFilters struct {
	GuildID  string
	ActorID  string
	Category string
	From     time.Time
	To       time.Time
	Page     int
	PageSize int
}

// PagingInfo describes result-set paging.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
	PrevPage int  `json:"prev_page,omitempty"`
	NextPage int  `json:"next_page,omitempty"`
}

// Result wraps a page of timeline rows.
type Result struct {
	Rows   []Event    `json:"rows"`
	Paging PagingInfo `json:"paging"`
}

// Service reads the audit trail for forensic review.
type Service struct {
	pool *pgxpool.Pool
}

// NewService constructs the timeline service.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// Timeline returns a page of audit events matching the filters, newest
// first.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	if s.pool == nil {
		return Result{}, fmt.Errorf("audit: service not configured")
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize

	var (
		conditions []string
		args       []any
	)
	add := func(clause string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}
	if filters.GuildID != "" {
		add("guild_id = $%d", filters.GuildID)
	}
	if filters.ActorID != "" {
		add("actor_id = $%d", filters.ActorID)
	}
	if filters.Category != "" {
		add("category = $%d", filters.Category)
	}
	if !filters.From.IsZero() {
		add("created_at >= $%d", filters.From)
	}
	if !filters.To.IsZero() {
		add("created_at <= $%d", filters.To)
	}

	query := `SELECT id, category, actor_id, actor_type, guild_id, entity_ref, action, result, reason, meta, created_at FROM audit_events`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, pageSize+1, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return Result{}, fmt.Errorf("audit: timeline query: %w", err)
	}
	defer rows.Close()

	events := make([]Event, 0, pageSize)
	for rows.Next() {
		var (
			e        Event
			id       uuid.UUID
			category string
			metaRaw  []byte
		)
		if err := rows.Scan(&id, &category, &e.ActorID, &e.ActorType, &e.GuildID, &e.EntityRef,
			&e.Action, &e.Result, &e.Reason, &metaRaw, &e.CreatedAt); err != nil {
			return Result{}, err
		}
		e.ID = id
		e.Category = Category(category)
		if len(metaRaw) > 0 {
			_ = json.Unmarshal(metaRaw, &e.Meta)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return Result{}, err
	}

	hasNext := len(events) > pageSize
	if hasNext {
		events = events[:pageSize]
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: events, Paging: paging}, nil
}

// PurgeOlderThan removes events past the retention window and returns the
// number of rows deleted. Live audit data is never updated; retention is the
// single sanctioned delete path.
func (s *Service) PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	if s.pool == nil {
		return 0, fmt.Errorf("audit: service not configured")
	}
	cutoff := time.Now().UTC().Add(-retention)
	tag, err := s.pool.Exec(ctx, `DELETE FROM audit_events WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("audit: purge: %w", err)
	}
	return tag.RowsAffected(), nil
}
