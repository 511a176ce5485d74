package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string

	// Gate
	GateSecret      string
	PatternHash     string
	UnlockPerMinute int

	// Peers whose X-Forwarded-For is believed. Empty means the client
	// IP is always the connection's remote address.
	TrustedProxies []netip.Prefix

	// Daily task pass
	TimeZone          string
	Location          *time.Location
	RecomputeSchedule string

	// Smart-home buttons
	IFTTTKey     string
	IFTTTBaseURL string

	LogLevel string
	LogPath  string
}

const (
	DefaultPort              = 3318
	DefaultRecomputeSchedule = "0 5 0 * * *"
	DefaultIFTTTBaseURL      = "https://maker.ifttt.com"
	DefaultUnlockPerMinute   = 10
)

// ParseFlags reads flags, then fills gaps from the environment (and an
// optional .env file), then validates.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var envFile string

	fs := flag.NewFlagSet("hearth", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&envFile, "env-file", ".env", "Optional dotenv file")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.GateSecret, "gate-secret", "", "Gate cookie signing secret (prefer env)")
	fs.StringVar(&cfg.PatternHash, "pattern-hash", "", "bcrypt hash of the unlock pattern (prefer env)")

	var trustedProxies string
	fs.StringVar(&trustedProxies, "trusted-proxies", "", "Comma-separated proxy IPs or CIDRs allowed to set X-Forwarded-For")

	fs.StringVar(&cfg.TimeZone, "tz", "", "Time zone for day boundaries")
	fs.StringVar(&cfg.RecomputeSchedule, "recompute", "", "Cron spec (with seconds) for the daily task pass")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&cfg.LogPath, "log-path", "", "Optional rolling log file")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// A missing .env is normal outside development.
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = DefaultPort
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	// Secrets - MUST be provided
	if cfg.GateSecret == "" {
		cfg.GateSecret = os.Getenv("GATE_SECRET")
	}
	if cfg.GateSecret == "" {
		return Config{}, errors.New("GATE_SECRET required")
	}

	if cfg.PatternHash == "" {
		cfg.PatternHash = os.Getenv("PATTERN_HASH")
	}
	if cfg.PatternHash == "" {
		return Config{}, errors.New("PATTERN_HASH required")
	}

	cfg.UnlockPerMinute = DefaultUnlockPerMinute
	if s := os.Getenv("UNLOCK_PER_MINUTE"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return Config{}, errors.New("invalid UNLOCK_PER_MINUTE env variable")
		}
		cfg.UnlockPerMinute = n
	}

	if trustedProxies == "" {
		trustedProxies = os.Getenv("TRUSTED_PROXIES")
	}
	proxies, err := ParseTrustedProxies(trustedProxies)
	if err != nil {
		return Config{}, err
	}
	cfg.TrustedProxies = proxies

	if cfg.TimeZone == "" {
		cfg.TimeZone = os.Getenv("TIMEZONE")
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = "Local"
	}
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return Config{}, fmt.Errorf("invalid time zone %q: %w", cfg.TimeZone, err)
	}
	cfg.Location = loc

	if cfg.RecomputeSchedule == "" {
		cfg.RecomputeSchedule = os.Getenv("RECOMPUTE_SCHEDULE")
	}
	if cfg.RecomputeSchedule == "" {
		cfg.RecomputeSchedule = DefaultRecomputeSchedule
	}

	cfg.IFTTTKey = os.Getenv("IFTTT_KEY")
	cfg.IFTTTBaseURL = os.Getenv("IFTTT_BASE_URL")
	if cfg.IFTTTBaseURL == "" {
		cfg.IFTTTBaseURL = DefaultIFTTTBaseURL
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = os.Getenv("LOG_LEVEL")
	}
	if cfg.LogPath == "" {
		cfg.LogPath = os.Getenv("LOG_PATH")
	}

	return cfg, nil
}

// ParseTrustedProxies reads a comma-separated list of CIDRs or bare IPs.
// A bare IP becomes a single-address prefix.
func ParseTrustedProxies(s string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "/") {
			p, err := netip.ParsePrefix(part)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", part, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(part)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", part, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}
