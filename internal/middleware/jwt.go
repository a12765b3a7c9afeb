package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/placenote/internal/metrics"
	"github.com/iliyamo/placenote/internal/token"
)

// AccessVerifier is the part of token.Service the gate needs.
type AccessVerifier interface {
	Verify(raw string, want token.Kind) (string, error)
}

const bearerPrefix = "Bearer "

// JWTAuth returns an Echo middleware that admits a request only when it
// carries "Authorization: Bearer <access token>" and the token verifies.
// On success the user id is stored on the echo context and on the request
// context.  Every rejection gets the same 401 body; the reason is only
// visible in logs and in the auth_rejections_total metric.
func JWTAuth(v AccessVerifier, log *zap.Logger, m *metrics.Collector) echo.MiddlewareFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, reason := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if reason != "" {
				return reject(c, log, m, reason)
			}

			uid, err := v.Verify(raw, token.Access)
			if err != nil {
				reason = "invalid_token"
				var terr *token.Error
				if errors.As(err, &terr) {
					reason = terr.Kind.String()
				}
				return reject(c, log, m, reason)
			}

			c.Set(userIDKey, uid)
			req := c.Request()
			c.SetRequest(req.WithContext(WithUserID(req.Context(), uid)))
			return next(c)
		}
	}
}

// bearerToken extracts the credential from an Authorization header value.
// A non-empty reason means the header is unusable.
func bearerToken(header string) (raw, reason string) {
	switch {
	case header == "":
		return "", "missing_header"
	case !strings.HasPrefix(header, bearerPrefix):
		return "", "bad_scheme"
	}
	raw = header[len(bearerPrefix):]
	if raw == "" {
		return "", "empty_token"
	}
	if strings.ContainsAny(raw, " \t\r\n") {
		return "", "malformed_header"
	}
	return raw, ""
}

func reject(c echo.Context, log *zap.Logger, m *metrics.Collector, reason string) error {
	m.RejectAuth(reason)
	log.Debug("request rejected by auth gate",
		zap.String("reason", reason),
		zap.String("method", c.Request().Method),
		zap.String("route", c.Path()),
	)
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}
