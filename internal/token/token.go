// Package token issues and verifies the HS256 session tokens handed out at
// registration, login and refresh.
//
// Every token carries sub, iat, exp, iss and a typ claim naming its kind.
// Verify always checks the signature first, then the registered claims,
// then subject and kind; nothing from an unverified token is ever returned
// to a caller.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Kind distinguishes access tokens from refresh tokens inside the signed
// payload.
type Kind string

const (
	Access  Kind = "access"
	Refresh Kind = "refresh"
)

// Claims is the signed payload.
type Claims struct {
	Kind Kind `json:"typ"`
	jwt.RegisteredClaims
}

// Issued is one signed token and its expiry.
type Issued struct {
	Token     string
	ExpiresAt time.Time
}

// Pair is what a successful register, login or refresh returns.
type Pair struct {
	Access  Issued
	Refresh Issued
}

// Config holds the signing secret and the two lifetimes.
type Config struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Service signs and verifies tokens. It holds no mutable state and is safe
// for concurrent use.
type Service struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	log        *zap.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger enables debug diagnostics on rejected tokens.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService validates cfg and builds a Service.
func NewService(cfg Config, opts ...Option) (*Service, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token: secret required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token: lifetimes must be positive")
	}
	s := &Service{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
		log:        zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Issue signs an access and a refresh token for userID. It performs no I/O.
func (s *Service) Issue(userID string) (Pair, error) {
	if userID == "" {
		return Pair{}, ErrMissingSubject
	}
	now := s.now().UTC().Truncate(time.Second)

	access, err := s.sign(userID, Access, now, s.accessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := s.sign(userID, Refresh, now, s.refreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

func (s *Service) sign(sub string, kind Kind, now time.Time, ttl time.Duration) (Issued, error) {
	exp := now.Add(ttl)
	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Issued{}, err
	}
	return Issued{Token: signed, ExpiresAt: exp}, nil
}

// Verify checks raw and returns its subject when it is a valid token of the
// wanted kind. Failures are always *Error.
func (s *Service) Verify(raw string, want Kind) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		terr := classify(err)
		s.diagnose(raw, terr)
		return "", terr
	}

	if claims.Subject == "" {
		return "", ErrMissingSubject
	}
	if claims.Kind != want {
		s.log.Debug("token kind mismatch",
			zap.String("want", string(want)), zap.String("got", string(claims.Kind)))
		return "", ErrKindMismatch
	}
	return claims.Subject, nil
}

// Refresh verifies a refresh token and issues a new pair for its subject.
func (s *Service) Refresh(raw string) (string, Pair, error) {
	sub, err := s.Verify(raw, Refresh)
	if err != nil {
		return "", Pair{}, err
	}
	p, err := s.Issue(sub)
	if err != nil {
		return "", Pair{}, err
	}
	return sub, p, nil
}

// classify maps parser errors onto ErrorKind. The parser verifies the
// signature before it looks at exp, so an expired token reaches Expired only
// after its signature checked out.
func classify(err error) *Error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return newError(SignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return newError(Expired, err)
	default:
		return newError(Malformed, err)
	}
}

// diagnose logs what an unverified token claims to be. Only typ and exp
// are read and only for the debug log; the token itself is never logged.
func (s *Service) diagnose(raw string, terr *Error) {
	if ce := s.log.Check(zap.DebugLevel, "token rejected"); ce != nil {
		fields := []zap.Field{zap.Stringer("reason", terr.Kind)}
		var unverified Claims
		if _, _, err := jwt.NewParser().ParseUnverified(raw, &unverified); err == nil {
			fields = append(fields, zap.String("claimed_kind", string(unverified.Kind)))
			if unverified.ExpiresAt != nil {
				fields = append(fields, zap.Time("claimed_exp", unverified.ExpiresAt.Time))
			}
		}
		ce.Write(fields...)
	}
}
