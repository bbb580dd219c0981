package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kirillkom/gst-reconcile-client/internal/core/domain"
)

// FileEnv names an optional YAML file whose keys match the environment
// variables below. Environment variables win over file values.
const FileEnv = "RECONCILE_CONFIG_FILE"

type Config struct {
	LogLevel string

	TenantID string
	Plan     string

	BackendURL            string
	BackendTimeoutSeconds int
	BackendRateLimitRPS   float64
	BackendRateLimitBurst int
	BackendContractStrict bool

	BreakerEnabled            bool
	BreakerMinRequests        int
	BreakerFailureRatio       float64
	BreakerOpenTimeoutSeconds int
	BreakerHalfOpenMaxCalls   int

	UploadPolicy string
	DisplayLimit int

	DownloadDir string
	SpoolDir    string
	PDFVerify   bool

	NATSURL     string
	NATSSubject string

	OpsPort string
}

// LoadDotEnv copies KEY=value pairs from the given files (default ".env")
// into the process environment without overriding variables already set.
// Missing files are not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

func Load() (Config, error) {
	defaults, err := loadFile(os.Getenv(FileEnv))
	if err != nil {
		return Config{}, err
	}

	return Config{
		LogLevel: mustEnv("LOG_LEVEL", defaults.str("LOG_LEVEL", "info")),

		TenantID: mustEnv("TENANT_ID", defaults.str("TENANT_ID", "")),
		Plan:     mustEnv("PLAN", defaults.str("PLAN", "BASIC")),

		BackendURL:            mustEnv("BACKEND_URL", defaults.str("BACKEND_URL", "http://localhost:8000")),
		BackendTimeoutSeconds: mustEnvInt("BACKEND_TIMEOUT_SECONDS", defaults.intValue("BACKEND_TIMEOUT_SECONDS", 60)),
		BackendRateLimitRPS:   mustEnvFloat("BACKEND_RATE_LIMIT_RPS", defaults.floatValue("BACKEND_RATE_LIMIT_RPS", 0)),
		BackendRateLimitBurst: mustEnvInt("BACKEND_RATE_LIMIT_BURST", defaults.intValue("BACKEND_RATE_LIMIT_BURST", 1)),
		BackendContractStrict: mustEnvBool("BACKEND_CONTRACT_STRICT", defaults.boolValue("BACKEND_CONTRACT_STRICT", false)),

		BreakerEnabled:            mustEnvBool("BREAKER_ENABLED", defaults.boolValue("BREAKER_ENABLED", true)),
		BreakerMinRequests:        mustEnvInt("BREAKER_MIN_REQUESTS", defaults.intValue("BREAKER_MIN_REQUESTS", 5)),
		BreakerFailureRatio:       mustEnvFloat("BREAKER_FAILURE_RATIO", defaults.floatValue("BREAKER_FAILURE_RATIO", 0.6)),
		BreakerOpenTimeoutSeconds: mustEnvInt("BREAKER_OPEN_TIMEOUT_SECONDS", defaults.intValue("BREAKER_OPEN_TIMEOUT_SECONDS", 30)),
		BreakerHalfOpenMaxCalls:   mustEnvInt("BREAKER_HALF_OPEN_MAX_CALLS", defaults.intValue("BREAKER_HALF_OPEN_MAX_CALLS", 1)),

		UploadPolicy: mustEnv("UPLOAD_POLICY", defaults.str("UPLOAD_POLICY", string(domain.PolicyReject))),
		DisplayLimit: mustEnvInt("DISPLAY_LIMIT", defaults.intValue("DISPLAY_LIMIT", 1000)),

		DownloadDir: mustEnv("DOWNLOAD_DIR", defaults.str("DOWNLOAD_DIR", "./downloads")),
		SpoolDir:    mustEnv("SPOOL_DIR", defaults.str("SPOOL_DIR", "")),
		PDFVerify:   mustEnvBool("PDF_VERIFY", defaults.boolValue("PDF_VERIFY", true)),

		NATSURL:     mustEnv("NATS_URL", defaults.str("NATS_URL", "")),
		NATSSubject: mustEnv("NATS_SUBJECT", defaults.str("NATS_SUBJECT", "gst.session")),

		OpsPort: mustEnv("OPS_PORT", defaults.str("OPS_PORT", "")),
	}, nil
}

// Validate reports settings the client cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.TenantID) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "config", fmt.Errorf("TENANT_ID is required"))
	}
	if strings.TrimSpace(c.BackendURL) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "config", fmt.Errorf("BACKEND_URL is required"))
	}
	if _, err := domain.ParseUploadPolicy(c.UploadPolicy); err != nil {
		return err
	}
	if c.BackendRateLimitRPS < 0 {
		return domain.WrapError(domain.ErrInvalidInput, "config", fmt.Errorf("BACKEND_RATE_LIMIT_RPS must not be negative"))
	}
	return nil
}

type fileValues map[string]string

func loadFile(path string) (fileValues, error) {
	if strings.TrimSpace(path) == "" {
		return fileValues{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var decoded map[string]any
	if err := yaml.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	out := make(fileValues, len(decoded))
	for key, value := range decoded {
		if value == nil {
			continue
		}
		out[strings.ToUpper(strings.TrimSpace(key))] = fmt.Sprint(value)
	}
	return out, nil
}

func (f fileValues) str(key, fallback string) string {
	if v, ok := f[key]; ok && v != "" {
		return v
	}
	return fallback
}

func (f fileValues) intValue(key string, fallback int) int {
	n, err := strconv.Atoi(f[key])
	if err != nil {
		return fallback
	}
	return n
}

func (f fileValues) floatValue(key string, fallback float64) float64 {
	n, err := strconv.ParseFloat(f[key], 64)
	if err != nil {
		return fallback
	}
	return n
}

func (f fileValues) boolValue(key string, fallback bool) bool {
	b, err := strconv.ParseBool(f[key])
	if err != nil {
		return fallback
	}
	return b
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
