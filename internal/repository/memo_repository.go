package repository

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/iliyamo/placenote/internal/apperr"
	"github.com/iliyamo/placenote/internal/model"
)

// MemoRepo encapsulates all queries against the `memos` table.  Locations
// live in a SRID 4326 POINT column; points are always written and read in
// longitude-latitude order.
type MemoRepo struct {
	db *sql.DB
}

func NewMemoRepo(db *sql.DB) *MemoRepo {
	return &MemoRepo{db: db}
}

const (
	memoColumns = `m.id, m.owner_id, m.title, m.content,
		ST_Longitude(m.location), ST_Latitude(m.location),
		m.created_at, m.updated_at`

	pointExpr = "ST_GeomFromText(?, 4326, 'axis-order=long-lat')"
)

// wkt renders p as a WKT point in long-lat order.
func wkt(p model.GeoPoint) string {
	return "POINT(" + strconv.FormatFloat(p.Longitude, 'f', -1, 64) + " " +
		strconv.FormatFloat(p.Latitude, 'f', -1, 64) + ")"
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMemo(s scanner, extra ...any) (model.Memo, error) {
	var m model.Memo
	dest := []any{
		&m.ID, &m.OwnerID, &m.Title, &m.Content,
		&m.Location.Longitude, &m.Location.Latitude,
		&m.CreatedAt, &m.UpdatedAt,
	}
	err := s.Scan(append(dest, extra...)...)
	return m, err
}

// Create inserts m (ID and OwnerID already set) and returns the stored row.
func (r *MemoRepo) Create(ctx context.Context, m model.Memo) (model.Memo, error) {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO memos (id, owner_id, title, content, location) VALUES (?,?,?,?,"+pointExpr+")",
		m.ID, m.OwnerID, m.Title, m.Content, wkt(m.Location))
	if err != nil {
		return model.Memo{}, apperr.Store("insert memo", err)
	}
	return r.GetByID(ctx, m.ID)
}

// GetByID fetches a memo regardless of owner.  Memos are publicly readable.
func (r *MemoRepo) GetByID(ctx context.Context, id string) (model.Memo, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+memoColumns+" FROM memos m WHERE m.id = ?", id)
	m, err := scanMemo(row)
	if err != nil {
		return model.Memo{}, rowErr("select memo", err)
	}
	return m, nil
}

// UpdateByIDAndOwner applies the non-nil patch fields to the memo only if it
// belongs to ownerID.  Zero matched rows yields apperr.ErrNotFound, whether
// the memo is missing or owned by someone else.
func (r *MemoRepo) UpdateByIDAndOwner(ctx context.Context, id, ownerID string, p model.MemoPatch) (model.Memo, error) {
	var (
		sets []string
		args []any
	)
	if p.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *p.Title)
	}
	if p.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *p.Content)
	}
	if p.Location != nil {
		sets = append(sets, "location = "+pointExpr)
		args = append(args, wkt(*p.Location))
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP(6)")
	args = append(args, id, ownerID)

	res, err := r.db.ExecContext(ctx,
		"UPDATE memos SET "+strings.Join(sets, ", ")+" WHERE id = ? AND owner_id = ?", args...)
	if err != nil {
		return model.Memo{}, apperr.Store("update memo", err)
	}
	if err := affectedOne("update memo", res); err != nil {
		return model.Memo{}, err
	}
	return r.GetByID(ctx, id)
}

// DeleteByIDAndOwner removes the memo only if it belongs to ownerID.
func (r *MemoRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM memos WHERE id = ? AND owner_id = ?", id, ownerID)
	if err != nil {
		return apperr.Store("delete memo", err)
	}
	return affectedOne("delete memo", res)
}

// Nearby returns memos within radiusMeters of p, nearest first, computed by
// MySQL's spherical distance over the spatial column.
func (r *MemoRepo) Nearby(ctx context.Context, p model.GeoPoint, radiusMeters float64, limit int) ([]model.NearbyMemo, error) {
	q := `SELECT ` + memoColumns + `, ST_Distance_Sphere(m.location, q.pt) AS distance_m
		FROM memos m
		CROSS JOIN (SELECT ` + pointExpr + ` AS pt) q
		WHERE ST_Distance_Sphere(m.location, q.pt) <= ?
		ORDER BY distance_m ASC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, q, wkt(p), radiusMeters, limit)
	if err != nil {
		return nil, apperr.Store("nearby memos", err)
	}
	defer rows.Close()

	out := make([]model.NearbyMemo, 0, limit)
	for rows.Next() {
		var dist float64
		m, err := scanMemo(rows, &dist)
		if err != nil {
			return nil, apperr.Store("scan nearby memo", err)
		}
		out = append(out, model.NearbyMemo{Memo: m, DistanceMeters: dist})
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("nearby memos", err)
	}
	return out, nil
}
