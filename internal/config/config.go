package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed booth.yaml
var catalogYAML []byte

type Config struct {
	API         APIConfig
	Capture     CaptureConfig
	Credentials CredentialsConfig
	Database    DatabaseConfig
	Web         WebConfig
	Gallery     GalleryConfig
	Log         LogConfig
	Catalog     Catalog
}

type APIConfig struct {
	URL       string        // booth API base URL (defaults to http://localhost:8000)
	DeviceKey string        // device key used for auto-login
	Token     string        // static API token, overrides stored credentials when set
	Timeout   time.Duration // per-request timeout (defaults to 2m)
}

type CaptureConfig struct {
	SpoolDir     string // directory the camera daemon writes frames into
	MaxFrameSize int    // maximum frame dimension after resizing
}

type CredentialsConfig struct {
	Dir                 string // directory holding credentials.json and login.json
	LoginDurationMonths int    // how long a login stays valid
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL, swap history is disabled when empty
	MaxOpenConns int    // Maximum open connections (default 5)
	MaxIdleConns int    // Maximum idle connections (default 2)
}

type WebConfig struct {
	RateLimit int // workflow commands per second per client
	RateBurst int
}

type GalleryConfig struct {
	RefreshSchedule string // cron expression for background gallery refresh, empty disables it
}

type LogConfig struct {
	Level  string
	Format string // "text" or "json"
}

// Catalog lists the template groups and swap options the booth API accepts.
type Catalog struct {
	Genders    []string `yaml:"genders"`
	Categories []string `yaml:"categories"`
	Modes      []string `yaml:"modes"`
	Models     []string `yaml:"models"`
}

func (c *Catalog) HasGender(g string) bool   { return slices.Contains(c.Genders, g) }
func (c *Catalog) HasCategory(s string) bool { return slices.Contains(c.Categories, s) }
func (c *Catalog) HasMode(m string) bool     { return slices.Contains(c.Modes, m) }
func (c *Catalog) HasModel(m string) bool    { return slices.Contains(c.Models, m) }

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envDuration reads an environment variable as a time.Duration ("90s", "2m").
// Returns the default value if the env var is unset, empty, invalid, or not positive.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func defaultCredentialsDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "photo-booth")
	}
	return ".photo-booth"
}

// LoadCatalog parses the embedded template catalog.
func LoadCatalog() Catalog {
	var catalog Catalog
	if err := yaml.Unmarshal(catalogYAML, &catalog); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded booth.yaml: " + err.Error())
	}
	return catalog
}

func Load() *Config {
	return &Config{
		API: APIConfig{
			URL:       envString("BOOTH_API_URL", "http://localhost:8000"),
			DeviceKey: os.Getenv("BOOTH_DEVICE_KEY"),
			Token:     os.Getenv("BOOTH_TOKEN"),
			Timeout:   envDuration("BOOTH_API_TIMEOUT", 2*time.Minute),
		},
		Capture: CaptureConfig{
			SpoolDir:     os.Getenv("CAPTURE_SPOOL_DIR"),
			MaxFrameSize: envInt("CAPTURE_MAX_FRAME_SIZE", 1920),
		},
		Credentials: CredentialsConfig{
			Dir:                 envString("BOOTH_CREDENTIALS_DIR", defaultCredentialsDir()),
			LoginDurationMonths: envInt("BOOTH_LOGIN_DURATION_MONTHS", 1),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 5),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 2),
		},
		Web: WebConfig{
			RateLimit: envInt("WEB_RATE_LIMIT", 10),
			RateBurst: envInt("WEB_RATE_BURST", 20),
		},
		Gallery: GalleryConfig{
			RefreshSchedule: envString("GALLERY_REFRESH_SCHEDULE", "@every 5m"),
		},
		Log: LogConfig{
			Level:  envString("LOG_LEVEL", "info"),
			Format: envString("LOG_FORMAT", "text"),
		},
		Catalog: LoadCatalog(),
	}
}
