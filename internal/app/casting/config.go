package casting

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/casting-intake/internal/core/services"
)

const ConfigFileEnv = "CASTING_CONFIG_FILE"

type Config struct {
	Port          string
	PublicBaseURL string

	RepoBackend string
	MySQLDSN    string
	DatabaseURL string

	SessionBackend       string
	RedisURL             string
	SessionTTL           time.Duration
	SessionSweepInterval time.Duration

	UploadProvider        string
	ChannelProvider       string
	DefaultChannelID      string
	ChannelMaxAttempts    int
	ChannelInitialBackoff time.Duration

	SubmitWaitMax      time.Duration
	ProviderRPS        float64
	QueueTickInterval  time.Duration
	RecheckMaxAttempts int

	LogLevel  string
	LogFormat string

	Credentials Credentials
}

// LoadConfig reads settings from the environment, then a .env file, then the
// TOML file named by CASTING_CONFIG_FILE. The first source that sets a key wins.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	src := source{}
	if path := os.Getenv(ConfigFileEnv); path != "" {
		file, err := readConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		src.file = file
	}
	return src.config(), nil
}

func (s source) config() Config {
	return Config{
		Port:          s.getEnv("PORT", "3000"),
		PublicBaseURL: s.getEnv("PUBLIC_BASE_URL", ""),

		RepoBackend: strings.ToLower(s.getEnv("REPO_BACKEND", "memory")),
		MySQLDSN:    s.getEnv("MYSQL_DSN", ""),
		DatabaseURL: s.getEnv("DATABASE_URL", ""),

		SessionBackend:       strings.ToLower(s.getEnv("SESSION_BACKEND", "memory")),
		RedisURL:             s.getEnv("REDIS_URL", ""),
		SessionTTL:           s.getDurationEnv("SESSION_TTL", services.DefaultSessionTTL),
		SessionSweepInterval: s.getDurationEnv("SESSION_SWEEP_INTERVAL", 60*time.Second),

		UploadProvider:        strings.ToLower(s.getEnv("UPLOAD_PROVIDER", "bunny")),
		ChannelProvider:       strings.ToLower(s.getEnv("CHANNEL_PROVIDER", "bunny")),
		DefaultChannelID:      s.getEnv("DEFAULT_CHANNEL_ID", ""),
		ChannelMaxAttempts:    s.getIntEnv("CHANNEL_MAX_ATTEMPTS", services.DefaultChannelMaxAttempts),
		ChannelInitialBackoff: s.getDurationEnv("CHANNEL_INITIAL_BACKOFF", services.DefaultChannelInitialBackoff),

		SubmitWaitMax:      s.getDurationEnv("SUBMIT_WAIT_MAX", services.DefaultSubmitWait),
		ProviderRPS:        s.getFloatEnv("PROVIDER_RPS", 5),
		QueueTickInterval:  s.getDurationEnv("QUEUE_TICK_INTERVAL", time.Second),
		RecheckMaxAttempts: s.getIntEnv("RECHECK_MAX_ATTEMPTS", services.DefaultRecheckMaxAttempts),

		LogLevel:  s.getEnv("LOG_LEVEL", "info"),
		LogFormat: s.getEnv("LOG_FORMAT", "json"),

		Credentials: Credentials{
			BunnyLibraryID:      s.getEnv("BUNNY_STREAM_LIBRARY_ID", ""),
			BunnyAPIKey:         s.getEnv("BUNNY_VIDEO_API_KEY", ""),
			BunnyBaseURL:        s.getEnv("BUNNY_API_BASE_URL", ""),
			CloudflareAccountID: s.getEnv("CLOUDFLARE_ACCOUNT_ID", ""),
			CloudflareAPIToken:  s.getEnv("CLOUDFLARE_API_TOKEN", ""),
			CloudflareBaseURL:   s.getEnv("CLOUDFLARE_API_BASE_URL", ""),
			GoogleClientID:      s.getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret:  s.getEnv("GOOGLE_CLIENT_SECRET", ""),
			GoogleRefreshToken:  s.getEnv("GOOGLE_REFRESH_TOKEN", ""),
			YouTubeBaseURL:      s.getEnv("YOUTUBE_API_BASE_URL", ""),
		},
	}
}

// readConfigFile flattens a TOML document into env-style keys, so
//
//	[bunny_stream]
//	library_id = "123"
//
// answers for BUNNY_STREAM_LIBRARY_ID.
func readConfigFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	out := make(map[string]string)
	flatten("", doc, out)
	return out, nil
}

func flatten(prefix string, doc map[string]any, out map[string]string) {
	for k, v := range doc {
		key := strings.ToUpper(k)
		if prefix != "" {
			key = prefix + "_" + key
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

type source struct {
	file map[string]string
}

func (s source) lookup(key string) (string, bool) {
	if val := os.Getenv(key); val != "" {
		return val, true
	}
	val, ok := s.file[key]
	return val, ok && val != ""
}

func (s source) getEnv(key, defaultVal string) string {
	if val, ok := s.lookup(key); ok {
		return val
	}
	return defaultVal
}

// getDurationEnv accepts a bare integer as milliseconds or a Go duration string.
func (s source) getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	val, ok := s.lookup(key)
	if !ok {
		return defaultVal
	}
	if ms, err := strconv.Atoi(val); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	return defaultVal
}

func (s source) getIntEnv(key string, defaultVal int) int {
	val, ok := s.lookup(key)
	if !ok {
		return defaultVal
	}
	if n, err := strconv.Atoi(val); err == nil {
		return n
	}
	return defaultVal
}

func (s source) getFloatEnv(key string, defaultVal float64) float64 {
	val, ok := s.lookup(key)
	if !ok {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(val, 64); err == nil {
		return f
	}
	return defaultVal
}
