package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/placenote/internal/apperr"
	"github.com/iliyamo/placenote/internal/model"
)

// ListByOwner returns a page of the owner's memos, newest first, together
// with the total number matching the filter.
func (r *MemoRepo) ListByOwner(ctx context.Context, q model.MemoListQuery) ([]model.Memo, int64, error) {
	where := []string{"m.owner_id = ?"}
	args := []any{q.OwnerID}
	if t := strings.TrimSpace(q.Title); t != "" {
		where = append(where, "LOWER(m.title) LIKE ?")
		args = append(args, "%"+escapeLike(strings.ToLower(t))+"%")
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM memos m WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Store("count memos", err)
	}
	if total == 0 {
		return []model.Memo{}, 0, nil
	}

	offset := (q.Page - 1) * q.PageSize
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+memoColumns+" FROM memos m WHERE "+cond+
			" ORDER BY m.created_at DESC, m.id ASC LIMIT ? OFFSET ?",
		append(args, q.PageSize, offset)...)
	if err != nil {
		return nil, 0, apperr.Store("list memos", err)
	}
	defer rows.Close()

	out := make([]model.Memo, 0, q.PageSize)
	for rows.Next() {
		m, err := scanMemo(rows)
		if err != nil {
			return nil, 0, apperr.Store("scan memo", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Store("list memos", err)
	}
	return out, total, nil
}

// escapeLike neutralizes LIKE wildcards in user input.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
