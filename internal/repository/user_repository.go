package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/placenote/internal/apperr"
	"github.com/iliyamo/placenote/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,nickname,password_hash,created_at"

// Create inserts the user.  u.ID must already be set; CreatedAt is read back
// from the row so callers see the stored timestamp.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id, email, nickname, password_hash) VALUES (?,?,?,?)",
		u.ID, u.Email, u.Nickname, u.PasswordHash)
	if err != nil {
		if isDuplicateKey(err) {
			return apperr.ErrConflict
		}
		return apperr.Store("insert user", err)
	}
	err = r.DB.QueryRowContext(ctx,
		"SELECT created_at FROM users WHERE id=?", u.ID).Scan(&u.CreatedAt)
	if err != nil {
		return rowErr("read user", err)
	}
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) getOne(ctx context.Context, q string, arg any) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx, q, arg).
		Scan(&u.ID, &u.Email, &u.Nickname, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return model.User{}, rowErr("select user", err)
	}
	return u, nil
}
