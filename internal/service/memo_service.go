package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/placenote/internal/apperr"
	"github.com/iliyamo/placenote/internal/geo"
	"github.com/iliyamo/placenote/internal/metrics"
	"github.com/iliyamo/placenote/internal/model"
	"github.com/iliyamo/placenote/internal/queue"
)

// MemoStore is the persistence MemoService needs.  Update and delete are
// scoped by owner in the store itself.
type MemoStore interface {
	Create(ctx context.Context, m model.Memo) (model.Memo, error)
	GetByID(ctx context.Context, id string) (model.Memo, error)
	UpdateByIDAndOwner(ctx context.Context, id, ownerID string, p model.MemoPatch) (model.Memo, error)
	DeleteByIDAndOwner(ctx context.Context, id, ownerID string) error
	ListByOwner(ctx context.Context, q model.MemoListQuery) ([]model.Memo, int64, error)
}

// NearbyFinder is implemented by *geo.Service.
type NearbyFinder interface {
	Nearby(ctx context.Context, q geo.Query) ([]model.NearbyMemo, error)
}

// EventPublisher is implemented by *queue.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.MemoEvent) error
}

// MemoInput is the body of a create.
type MemoInput struct {
	Title    string
	Content  string
	Location model.GeoPoint
}

const (
	publishTimeout = 3 * time.Second

	defaultPageSize = 20
	maxPageSize     = 100
)

type MemoService struct {
	memos   MemoStore
	nearby  NearbyFinder
	events  EventPublisher
	metrics *metrics.Collector
	log     *zap.Logger
	now     func() time.Time
}

// MemoOption customizes a MemoService.
type MemoOption func(*MemoService)

// WithEvents publishes a MemoEvent after every successful write.
func WithEvents(p EventPublisher) MemoOption {
	return func(s *MemoService) { s.events = p }
}

func WithMetrics(m *metrics.Collector) MemoOption {
	return func(s *MemoService) { s.metrics = m }
}

func WithMemoLogger(l *zap.Logger) MemoOption {
	return func(s *MemoService) { s.log = l }
}

func NewMemoService(memos MemoStore, nearby NearbyFinder, opts ...MemoOption) *MemoService {
	s := &MemoService{memos: memos, nearby: nearby, log: zap.NewNop(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create stores a memo owned by ownerID.
func (s *MemoService) Create(ctx context.Context, ownerID string, in MemoInput) (model.Memo, error) {
	if ownerID == "" {
		return model.Memo{}, apperr.ErrUnauthorized
	}
	title := strings.TrimSpace(in.Title)
	switch {
	case title == "":
		return model.Memo{}, apperr.Invalid("title", apperr.ErrMissingField)
	case strings.TrimSpace(in.Content) == "":
		return model.Memo{}, apperr.Invalid("content", apperr.ErrMissingField)
	}
	if err := geo.ValidatePoint(in.Location); err != nil {
		return model.Memo{}, err
	}

	m, err := s.memos.Create(ctx, model.Memo{
		ID:       uuid.NewString(),
		OwnerID:  ownerID,
		Title:    title,
		Content:  in.Content,
		Location: in.Location,
	})
	if err != nil {
		return model.Memo{}, err
	}
	s.publish(ctx, queue.MemoCreated, m)
	return m, nil
}

// Get returns any memo by id.
func (s *MemoService) Get(ctx context.Context, id string) (model.Memo, error) {
	if strings.TrimSpace(id) == "" {
		return model.Memo{}, apperr.ErrNotFound
	}
	return s.memos.GetByID(ctx, id)
}

// Update applies p to the memo if callerID owns it.  A memo owned by someone
// else is reported exactly like a missing one.
func (s *MemoService) Update(ctx context.Context, id, callerID string, p model.MemoPatch) (model.Memo, error) {
	if callerID == "" {
		return model.Memo{}, apperr.ErrUnauthorized
	}
	if p.Empty() {
		return model.Memo{}, apperr.Invalid("patch", apperr.ErrMissingField)
	}
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if t == "" {
			return model.Memo{}, apperr.Invalid("title", apperr.ErrMissingField)
		}
		p.Title = &t
	}
	if p.Content != nil && strings.TrimSpace(*p.Content) == "" {
		return model.Memo{}, apperr.Invalid("content", apperr.ErrMissingField)
	}
	if p.Location != nil {
		if err := geo.ValidatePoint(*p.Location); err != nil {
			return model.Memo{}, err
		}
	}

	m, err := s.memos.UpdateByIDAndOwner(ctx, id, callerID, p)
	if err != nil {
		return model.Memo{}, err
	}
	s.publish(ctx, queue.MemoUpdated, m)
	return m, nil
}

// Delete removes the memo if callerID owns it.
func (s *MemoService) Delete(ctx context.Context, id, callerID string) error {
	if callerID == "" {
		return apperr.ErrUnauthorized
	}
	if err := s.memos.DeleteByIDAndOwner(ctx, id, callerID); err != nil {
		return err
	}
	s.publish(ctx, queue.MemoDeleted, model.Memo{ID: id, OwnerID: callerID})
	return nil
}

// ListByOwner pages through one user's memos.  Page and size are
// defaulted and clamped rather than rejected.
func (s *MemoService) ListByOwner(ctx context.Context, q model.MemoListQuery) (model.MemoPage, error) {
	if strings.TrimSpace(q.OwnerID) == "" {
		return model.MemoPage{}, apperr.ErrNotFound
	}
	if q.Page < 1 {
		q.Page = 1
	}
	switch {
	case q.PageSize < 1:
		q.PageSize = defaultPageSize
	case q.PageSize > maxPageSize:
		q.PageSize = maxPageSize
	}

	memos, total, err := s.memos.ListByOwner(ctx, q)
	if err != nil {
		return model.MemoPage{}, err
	}
	return model.MemoPage{Memos: memos, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

// Nearby runs a geospatial query.
func (s *MemoService) Nearby(ctx context.Context, q geo.Query) ([]model.NearbyMemo, error) {
	rows, err := s.nearby.Nearby(ctx, q)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveNearby(len(rows))
	return rows, nil
}

// publish is best effort: the write already succeeded, so a broker failure
// is logged and counted but never returned.
func (s *MemoService) publish(ctx context.Context, t queue.EventType, m model.Memo) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := s.events.Publish(ctx, queue.NewMemoEvent(t, m, s.now()))
	s.metrics.MemoEvent(string(t), err)
	if err != nil {
		s.log.Warn("memo event not published",
			zap.String("type", string(t)), zap.String("memo_id", m.ID), zap.Error(err))
	}
}
