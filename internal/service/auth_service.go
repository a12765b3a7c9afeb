// Package service holds the application operations behind the HTTP
// handlers.  Services own validation that needs no store, call the
// repositories through narrow interfaces and return apperr / token errors
// for the handlers to map.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/placenote/internal/apperr"
	"github.com/iliyamo/placenote/internal/model"
	"github.com/iliyamo/placenote/internal/token"
	"github.com/iliyamo/placenote/internal/utils"
)

// ErrInvalidCredentials is returned by Login for an unknown email and for a
// wrong password alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 6

// UserStore is the persistence AuthService needs.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
}

// TokenIssuer is the part of token.Service used here.
type TokenIssuer interface {
	Issue(userID string) (token.Pair, error)
	Refresh(raw string) (string, token.Pair, error)
}

// Session is what register, login and refresh hand back.
type Session struct {
	User   model.User
	Tokens token.Pair
}

type AuthService struct {
	users  UserStore
	tokens TokenIssuer
	hasher *utils.PasswordHasher
	log    *zap.Logger
}

func NewAuthService(users UserStore, tokens TokenIssuer, hasher *utils.PasswordHasher, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{users: users, tokens: tokens, hasher: hasher, log: log}
}

// Register creates an account and signs the caller in.  A taken email
// yields apperr.ErrConflict.
func (s *AuthService) Register(ctx context.Context, email, password, nickname string) (Session, error) {
	email = normalizeEmail(email)
	nickname = strings.TrimSpace(nickname)
	switch {
	case email == "":
		return Session{}, apperr.Invalid("email", apperr.ErrMissingField)
	case password == "":
		return Session{}, apperr.Invalid("password", apperr.ErrMissingField)
	case nickname == "":
		return Session{}, apperr.Invalid("nickname", apperr.ErrMissingField)
	case utf8.RuneCountInString(password) < MinPasswordLength, utils.IsTooLong(password):
		return Session{}, apperr.Invalid("password", apperr.ErrInvalidParameter)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	u := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		Nickname:     nickname,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		return Session{}, err
	}

	pair, err := s.tokens.Issue(u.ID)
	if err != nil {
		return Session{}, fmt.Errorf("issue tokens: %w", err)
	}
	s.log.Info("user registered", zap.String("user_id", u.ID))
	return Session{User: u, Tokens: pair}, nil
}

// Login checks credentials and issues a fresh pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	u, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		s.hasher.Burn(password)
		return Session{}, ErrInvalidCredentials
	case err != nil:
		return Session{}, err
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}

	pair, err := s.tokens.Issue(u.ID)
	if err != nil {
		return Session{}, fmt.Errorf("issue tokens: %w", err)
	}
	return Session{User: u, Tokens: pair}, nil
}

// Refresh exchanges a refresh token for a new pair.  Token failures come
// back as *token.Error; a subject whose account no longer exists is
// apperr.ErrUnauthorized.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	uid, pair, err := s.tokens.Refresh(refreshToken)
	if err != nil {
		return Session{}, err
	}
	u, err := s.users.GetByID(ctx, uid)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		s.log.Info("refresh for deleted user", zap.String("user_id", uid))
		return Session{}, apperr.ErrUnauthorized
	case err != nil:
		return Session{}, err
	}
	return Session{User: u, Tokens: pair}, nil
}

// CurrentUser loads the authenticated caller.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (model.User, error) {
	if userID == "" {
		return model.User{}, apperr.ErrUnauthorized
	}
	return s.users.GetByID(ctx, userID)
}

// Profile loads any user by id.  Handlers render it without the email.
func (s *AuthService) Profile(ctx context.Context, userID string) (model.User, error) {
	if strings.TrimSpace(userID) == "" {
		return model.User{}, apperr.ErrNotFound
	}
	return s.users.GetByID(ctx, userID)
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
