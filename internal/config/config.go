// Package config provides configuration loaded from environment variables.
// The CLI overrides these values with flags before calling Validate.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/albapepper/sportsmeta/internal/provider/sportsdb"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// --------------------------------------------------------------------------
// Defaults
// --------------------------------------------------------------------------

const (
	DefaultAPIVersion   = "v1"
	DefaultMaxRetries   = 3
	DefaultRetryBackoff = 3 * time.Second
	DefaultMaxBackoff   = time.Minute
	DefaultTimeout      = 30 * time.Second
	DefaultAssetWorkers = 4
	DefaultStartRound   = 1
	DefaultStopRound    = 60
)

// --------------------------------------------------------------------------
// Config struct — populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// TheSportsDB
	APIKey     string
	APIVersion string // v1, v2
	SiteRoot   string

	// HTTP client
	RequestInterval  time.Duration // 0 = default for the API tier
	MaxRetries       int
	RetryBackoff     time.Duration
	MaxBackoff       time.Duration
	Timeout          time.Duration
	Insecure         bool
	InsecureFallback bool

	// Assets
	AssetURLBase string
	AssetsRoot   string
	AssetWorkers int
	SkipDownload bool

	// Discovery
	StartRound int
	StopRound  int
	RoundDelay time.Duration

	// Catalog and output
	SportsFile string
	Output     string
	Debug      bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		APIKey:     envOr("SPORTSDB_API_KEY", envOr("THESPORTSDB_API_KEY", sportsdb.DefaultAPIKey)),
		APIVersion: envOr("SPORTSDB_API_VERSION", DefaultAPIVersion),
		SiteRoot:   envOr("SPORTSDB_SITE_ROOT", envOr("SPORTSDB_BASE_URL", "")),

		RequestInterval:  envSeconds("SPORTSMETA_REQUEST_INTERVAL", 0),
		MaxRetries:       envInt("SPORTSMETA_MAX_RETRIES", DefaultMaxRetries),
		RetryBackoff:     envSeconds("SPORTSMETA_RETRY_BACKOFF", DefaultRetryBackoff),
		MaxBackoff:       envSeconds("SPORTSMETA_MAX_BACKOFF", DefaultMaxBackoff),
		Timeout:          envSeconds("SPORTSMETA_TIMEOUT", DefaultTimeout),
		Insecure:         envBool("SPORTSMETA_INSECURE", false),
		InsecureFallback: envBool("SPORTSMETA_INSECURE_FALLBACK", false),

		AssetURLBase: envOr("SPORTSMETA_ASSET_URL_BASE", ""),
		AssetsRoot:   envOr("SPORTSMETA_ASSETS_ROOT", "."),
		AssetWorkers: envInt("SPORTSMETA_ASSET_WORKERS", DefaultAssetWorkers),
		SkipDownload: envBool("SPORTSMETA_SKIP_ASSET_DOWNLOAD", false),

		StartRound: envInt("SPORTSMETA_START_ROUND", DefaultStartRound),
		StopRound:  envInt("SPORTSMETA_STOP_ROUND", DefaultStopRound),
		RoundDelay: envSeconds("SPORTSMETA_ROUND_DELAY", 0),

		SportsFile: envOr("SPORTSMETA_SPORTS_FILE", ""),
		Output:     envOr("SPORTSMETA_OUTPUT", ""),
		Debug:      envBool("SPORTSMETA_DEBUG", false),
	}
}

// Validate rejects settings a run cannot start with. All problems are
// reported together.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if strings.IndexFunc(c.APIKey, unicode.IsSpace) >= 0 {
		add("API key must not contain whitespace")
	}
	if v := sportsdb.NormalizeAPIVersion(c.APIVersion); v != "v1" && v != "v2" {
		add("API version %q must be v1 or v2", c.APIVersion)
	}
	if c.RequestInterval < 0 {
		add("request interval %s is negative", c.RequestInterval)
	}
	if c.MaxRetries < 0 {
		add("max retries %d is negative", c.MaxRetries)
	}
	if c.RetryBackoff < 0 || c.MaxBackoff < 0 {
		add("retry backoff must not be negative")
	}
	if c.Timeout <= 0 {
		add("timeout must be positive")
	}
	if c.AssetWorkers < 1 {
		add("asset workers %d must be >= 1", c.AssetWorkers)
	}
	if c.StartRound < 1 {
		add("start round %d must be >= 1", c.StartRound)
	}
	if c.StopRound < c.StartRound {
		add("stop round %d is before start round %d", c.StopRound, c.StartRound)
	}
	if c.RoundDelay < 0 {
		add("round delay %s is negative", c.RoundDelay)
	}
	if strings.TrimSpace(c.Output) == "" {
		add("output path is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err == nil {
			return b
		}
	}
	return fallback
}

func envSeconds(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if d, err := ParseSeconds(v); err == nil {
		return d
	}
	return fallback
}

// ParseSeconds accepts plain seconds ("2.1") or a Go duration ("1500ms").
func ParseSeconds(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(f * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%q is neither seconds nor a duration", v)
	}
	return d, nil
}
