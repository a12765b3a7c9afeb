package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/placenote/internal/middleware"
	"github.com/iliyamo/placenote/internal/model"
	"github.com/iliyamo/placenote/internal/service"
	"github.com/iliyamo/placenote/internal/token"
)

// AuthService is implemented by *service.AuthService.
type AuthService interface {
	Register(ctx context.Context, email, password, nickname string) (service.Session, error)
	Login(ctx context.Context, email, password string) (service.Session, error)
	Refresh(ctx context.Context, refreshToken string) (service.Session, error)
	CurrentUser(ctx context.Context, userID string) (model.User, error)
	Profile(ctx context.Context, userID string) (model.User, error)
}

// AuthHandler serves /v1/auth and the public user profile.
type AuthHandler struct {
	auth    AuthService
	log     *zap.Logger
	timeout time.Duration
}

func NewAuthHandler(auth AuthService, log *zap.Logger, timeout time.Duration) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AuthHandler{auth: auth, log: log, timeout: timeout}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Nickname string `json:"nickname" validate:"required,max=50"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type tokenPart struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type userPart struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Nickname  string    `json:"nickname"`
	CreatedAt time.Time `json:"created_at"`
}

type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func privateUser(u model.User) userPart {
	return userPart{ID: u.ID, Email: u.Email, Nickname: u.Nickname, CreatedAt: u.CreatedAt}
}

func publicUser(u model.User) userPart {
	return userPart{ID: u.ID, Nickname: u.Nickname, CreatedAt: u.CreatedAt}
}

func sessionResp(s service.Session) authResp {
	return authResp{
		User:    privateUser(s.User),
		Access:  tokenPart{Token: s.Tokens.Access.Token, ExpiresAt: s.Tokens.Access.ExpiresAt},
		Refresh: tokenPart{Token: s.Tokens.Refresh.Token, ExpiresAt: s.Tokens.Refresh.ExpiresAt},
	}
}

// Register: create the user and return a token pair immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, h.log, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	sess, err := h.auth.Register(ctx, req.Email, req.Password, req.Nickname)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, sessionResp(sess))
}

// Login: check credentials and return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, h.log, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	sess, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, sessionResp(sess))
}

// Refresh: exchange a refresh token for a new pair.  Unlike the gate, this
// endpoint tells an expired token apart so clients know to log in again.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, h.log, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	sess, err := h.auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		var terr *token.Error
		if errors.As(err, &terr) {
			code := "invalid_token"
			if terr.Kind == token.Expired {
				code = "token_expired"
			}
			h.log.Debug("refresh rejected", zap.Stringer("reason", terr.Kind))
			return c.JSON(http.StatusUnauthorized, errorBody{Error: code})
		}
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, sessionResp(sess))
}

// Me returns the authenticated caller, email included.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorBody{Error: "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	u, err := h.auth.CurrentUser(ctx, uid)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, privateUser(u))
}

// Profile returns the public view of any user.
func (h *AuthHandler) Profile(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	u, err := h.auth.Profile(ctx, c.Param("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, publicUser(u))
}
