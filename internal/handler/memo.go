package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/placenote/internal/apperr"
	"github.com/iliyamo/placenote/internal/geo"
	"github.com/iliyamo/placenote/internal/middleware"
	"github.com/iliyamo/placenote/internal/model"
	"github.com/iliyamo/placenote/internal/service"
)

// MemoService is implemented by *service.MemoService.
type MemoService interface {
	Create(ctx context.Context, ownerID string, in service.MemoInput) (model.Memo, error)
	Get(ctx context.Context, id string) (model.Memo, error)
	Update(ctx context.Context, id, callerID string, p model.MemoPatch) (model.Memo, error)
	Delete(ctx context.Context, id, callerID string) error
	Nearby(ctx context.Context, q geo.Query) ([]model.NearbyMemo, error)
	ListByOwner(ctx context.Context, q model.MemoListQuery) (model.MemoPage, error)
}

// MemoHandler serves /v1/memos.
type MemoHandler struct {
	memos   MemoService
	log     *zap.Logger
	timeout time.Duration
}

func NewMemoHandler(memos MemoService, log *zap.Logger, timeout time.Duration) *MemoHandler {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &MemoHandler{memos: memos, log: log, timeout: timeout}
}

type createMemoReq struct {
	Title    string          `json:"title" validate:"required,max=200"`
	Content  string          `json:"content" validate:"required"`
	Location *model.GeoPoint `json:"location" validate:"required"`
}

type updateMemoReq struct {
	Title    *string         `json:"title" validate:"omitempty,max=200"`
	Content  *string         `json:"content"`
	Location *model.GeoPoint `json:"location"`
}

type nearbyResp struct {
	Memos []model.NearbyMemo `json:"memos"`
	Count int                `json:"count"`
}

// Create stores a memo owned by the authenticated caller.
func (h *MemoHandler) Create(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorBody{Error: "unauthorized"})
	}
	var req createMemoReq
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, h.log, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	m, err := h.memos.Create(ctx, uid, service.MemoInput{
		Title:    req.Title,
		Content:  req.Content,
		Location: *req.Location,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// Get returns any memo by id.
func (h *MemoHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	m, err := h.memos.Get(ctx, c.Param("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Update patches a memo the caller owns.  Someone else's memo answers 404,
// byte for byte the same as a missing one.
func (h *MemoHandler) Update(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorBody{Error: "unauthorized"})
	}
	var req updateMemoReq
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, h.log, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	m, err := h.memos.Update(ctx, c.Param("id"), uid, model.MemoPatch{
		Title:    req.Title,
		Content:  req.Content,
		Location: req.Location,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Delete removes a memo the caller owns.
func (h *MemoHandler) Delete(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorBody{Error: "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.memos.Delete(ctx, c.Param("id"), uid); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Nearby answers GET /v1/memos/nearby?longitude=&latitude=&radius=&limit=.
func (h *MemoHandler) Nearby(c echo.Context) error {
	q, err := parseNearbyQuery(c)
	if err != nil {
		return writeError(c, h.log, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	rows, err := h.memos.Nearby(ctx, q)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if rows == nil {
		rows = []model.NearbyMemo{}
	}
	return c.JSON(http.StatusOK, nearbyResp{Memos: rows, Count: len(rows)})
}

// ListByOwner answers GET /v1/users/:id/memos?title=&page=&page_size=.
func (h *MemoHandler) ListByOwner(c echo.Context) error {
	q := model.MemoListQuery{
		OwnerID: c.Param("id"),
		Title:   c.QueryParam("title"),
	}
	var err error
	if q.Page, err = intParam(c, "page"); err != nil {
		return writeError(c, h.log, err)
	}
	if q.PageSize, err = intParam(c, "page_size"); err != nil {
		return writeError(c, h.log, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	page, err := h.memos.ListByOwner(ctx, q)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, page)
}

func parseNearbyQuery(c echo.Context) (geo.Query, error) {
	var q geo.Query

	lng, err := floatParam(c, "longitude", apperr.ErrInvalidCoordinate)
	if err != nil {
		return q, err
	}
	lat, err := floatParam(c, "latitude", apperr.ErrInvalidCoordinate)
	if err != nil {
		return q, err
	}
	if lng == nil {
		return q, apperr.Invalid("longitude", apperr.ErrMissingField)
	}
	if lat == nil {
		return q, apperr.Invalid("latitude", apperr.ErrMissingField)
	}
	q.Point = model.GeoPoint{Longitude: *lng, Latitude: *lat}

	if q.RadiusMeters, err = floatParam(c, "radius", apperr.ErrInvalidParameter); err != nil {
		return q, err
	}
	if s := strings.TrimSpace(c.QueryParam("limit")); s != "" {
		n, err := intParam(c, "limit")
		if err != nil {
			return q, err
		}
		q.Limit = &n
	}
	return q, nil
}

// intParam returns 0 when the parameter is absent.
func intParam(c echo.Context, name string) (int, error) {
	s := strings.TrimSpace(c.QueryParam(name))
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperr.Invalid(name, apperr.ErrInvalidParameter)
	}
	return n, nil
}

// floatParam returns nil when the parameter is absent.
func floatParam(c echo.Context, name string, kind error) (*float64, error) {
	s := strings.TrimSpace(c.QueryParam(name))
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, apperr.Invalid(name, kind)
	}
	return &f, nil
}
