package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The struct is built once at startup and handed
// to constructors by value; nothing mutates it afterwards.
type Config struct {
	Env      string // application environment (dev, test, prod)
	Port     string // HTTP port to listen on
	LogLevel string // zap level name (debug, info, warn, error)

	DBUser        string // database username
	DBPass        string // database password (optional)
	DBHost        string // database host address
	DBPort        string // database port number
	DBName        string // database name
	DBAutoMigrate bool   // apply the embedded schema on startup

	JWTSecret  string        // secret used to sign JWTs
	JWTIssuer  string        // iss claim written and required on every token
	AccessTTL  time.Duration // access token lifetime
	RefreshTTL time.Duration // refresh token lifetime
	BcryptCost int           // bcrypt cost for password hashing

	NearbyDefaultRadius float64 // radius in meters used when the caller omits one
	NearbyMaxRadius     float64 // radius ceiling in meters
	NearbyDefaultLimit  int     // result count used when the caller omits one
	NearbyMaxLimit      int     // hard ceiling on result count

	RequestTimeout time.Duration // per-request deadline for store calls
}

// required lists the variables that have no sensible default.
var required = []string{"DB_USER", "DB_HOST", "DB_PORT", "DB_NAME", "JWT_SECRET"}

// Load reads a .env file when one is present, then builds a Config from the
// process environment.  Every missing required variable is reported in a
// single error so operators can fix them in one pass.
func Load() (Config, error) {
	// A missing .env is normal in containers; real variables always win.
	_ = godotenv.Load()

	var missing []string
	for _, k := range required {
		if strings.TrimSpace(os.Getenv(k)) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return Config{}, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}

	cfg := Config{
		Env:           envStr("APP_ENV", "dev"),
		Port:          envStr("APP_PORT", "3000"),
		LogLevel:      envStr("LOG_LEVEL", "info"),
		DBUser:        os.Getenv("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"),
		DBHost:        os.Getenv("DB_HOST"),
		DBPort:        os.Getenv("DB_PORT"),
		DBName:        os.Getenv("DB_NAME"),
		DBAutoMigrate: envBool("DB_AUTO_MIGRATE", false),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTIssuer:     envStr("JWT_ISSUER", "placenote"),
		BcryptCost:    envInt("BCRYPT_COST", 10),

		NearbyDefaultRadius: envFloat("NEARBY_DEFAULT_RADIUS_M", 50),
		NearbyMaxRadius:     envFloat("NEARBY_MAX_RADIUS_M", 5000),
		NearbyDefaultLimit:  envInt("NEARBY_DEFAULT_LIMIT", 20),
		NearbyMaxLimit:      envInt("NEARBY_MAX_LIMIT", 100),

		RequestTimeout: envDur("REQUEST_TIMEOUT", 5*time.Second),
	}

	var err error
	if cfg.AccessTTL, err = ParseTTL(envStr("JWT_EXPIRES_IN", "24h")); err != nil {
		return Config{}, fmt.Errorf("JWT_EXPIRES_IN: %w", err)
	}
	if cfg.RefreshTTL, err = ParseTTL(envStr("JWT_REFRESH_EXPIRES_IN", "7d")); err != nil {
		return Config{}, fmt.Errorf("JWT_REFRESH_EXPIRES_IN: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.AccessTTL >= c.RefreshTTL:
		return errors.New("access token lifetime must be shorter than refresh token lifetime")
	case c.NearbyDefaultLimit < 1 || c.NearbyMaxLimit < c.NearbyDefaultLimit:
		return errors.New("nearby limits must satisfy 1 <= default <= max")
	case c.NearbyDefaultRadius <= 0 || c.NearbyMaxRadius < c.NearbyDefaultRadius:
		return errors.New("nearby radius must satisfy 0 < default <= max")
	}
	return nil
}

// ParseTTL accepts anything time.ParseDuration does plus a whole-day form
// such as "7d", matching how token lifetimes are usually written.
func ParseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "d") {
		n, err := parsePositiveInt(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid day duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %q", s)
	}
	return d, nil
}
