package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	// Embedded zone database for minimal container images.
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// MaxBatchSize is the FCM per-request fan-out limit.
const MaxBatchSize = 500

// Config holds application configuration loaded from environment.
type Config struct {
	Push struct {
		ServerKey     string
		Endpoint      string
		Timeout       time.Duration
		RatePerSecond int
		MaxRetries    int
		BatchSize     int
		QuietHoursTZ  string
	}
	DB struct {
		DSN string
	}
	API struct {
		Port     string
		BasePath string
	}
	Kafka struct {
		Broker  string
		Topic   string
		GroupID string
	}
	Notification struct {
		QueueSize  int
		MaxWorkers int
	}
	Redis struct {
		Addr          string
		Password      string
		PreferenceTTL time.Duration
	}
	Logging struct {
		Dir   string
		Level string
	}
}

// ConfigurationError reports required settings that are missing.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required configurations: %s", strings.Join(e.Missing, ", "))
}

// Load reads environment variables, applies defaults, and returns a Config.
// Required settings are not enforced here; call Validate so the API can still
// come up and answer with a configuration error.
func Load() (Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config

	// Push provider
	cfg.Push.ServerKey = os.Getenv("FCM_SERVER_KEY")
	cfg.Push.Endpoint = os.Getenv("FCM_ENDPOINT")
	cfg.Push.QuietHoursTZ = os.Getenv("QUIET_HOURS_TZ")
	if s, err := strconv.Atoi(os.Getenv("FCM_TIMEOUT_SECONDS")); err == nil {
		cfg.Push.Timeout = time.Duration(s) * time.Second
	}
	if r, err := strconv.Atoi(os.Getenv("FCM_RATE_PER_SECOND")); err == nil {
		cfg.Push.RatePerSecond = r
	}
	if r, err := strconv.Atoi(os.Getenv("PUSH_MAX_RETRIES")); err == nil {
		cfg.Push.MaxRetries = r
	}
	if b, err := strconv.Atoi(os.Getenv("PUSH_BATCH_SIZE")); err == nil {
		cfg.Push.BatchSize = b
	}

	// Database DSN
	cfg.DB.DSN = os.Getenv("DB_DSN")

	// API settings
	cfg.API.Port = os.Getenv("API_PORT")
	cfg.API.BasePath = os.Getenv("API_BASE_PATH")

	// Kafka settings
	cfg.Kafka.Broker = os.Getenv("KAFKA_BROKER")
	cfg.Kafka.Topic = os.Getenv("KAFKA_TOPIC")
	cfg.Kafka.GroupID = os.Getenv("KAFKA_GROUP_ID")

	// Worker settings
	if qs, err := strconv.Atoi(os.Getenv("QUEUE_SIZE")); err == nil {
		cfg.Notification.QueueSize = qs
	}
	if mw, err := strconv.Atoi(os.Getenv("MAX_WORKERS")); err == nil {
		cfg.Notification.MaxWorkers = mw
	}

	// Redis preference cache
	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	if s, err := strconv.Atoi(os.Getenv("PREFERENCE_CACHE_TTL_SECONDS")); err == nil {
		cfg.Redis.PreferenceTTL = time.Duration(s) * time.Second
	}

	// Logging
	cfg.Logging.Dir = os.Getenv("LOG_DIR")
	cfg.Logging.Level = os.Getenv("LOG_LEVEL")

	cfg.applyDefaults()

	if _, err := time.LoadLocation(cfg.Push.QuietHoursTZ); err != nil {
		return Config{}, fmt.Errorf("invalid QUIET_HOURS_TZ %q: %w", cfg.Push.QuietHoursTZ, err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Push.Endpoint == "" {
		c.Push.Endpoint = "https://fcm.googleapis.com/fcm/send"
	}
	if c.Push.Timeout <= 0 {
		c.Push.Timeout = 10 * time.Second
	}
	if c.Push.RatePerSecond <= 0 {
		c.Push.RatePerSecond = 50
	}
	if c.Push.MaxRetries <= 0 {
		c.Push.MaxRetries = 3
	}
	if c.Push.BatchSize <= 0 || c.Push.BatchSize > MaxBatchSize {
		c.Push.BatchSize = MaxBatchSize
	}
	if c.Push.QuietHoursTZ == "" {
		c.Push.QuietHoursTZ = "UTC"
	}
	if c.API.Port == "" {
		c.API.Port = ":8080"
	}
	if c.API.BasePath == "" {
		c.API.BasePath = "/api/v0"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "push_notifications"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "push-service"
	}
	if c.Notification.QueueSize == 0 {
		c.Notification.QueueSize = 500
	}
	if c.Notification.MaxWorkers == 0 {
		c.Notification.MaxWorkers = 10
	}
	if c.Redis.PreferenceTTL <= 0 {
		c.Redis.PreferenceTTL = time.Minute
	}
	if c.Logging.Dir == "" {
		c.Logging.Dir = "logs"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate reports the provider and storage credentials that are not set.
func (c Config) Validate() error {
	missing := []string{}
	if c.Push.ServerKey == "" {
		missing = append(missing, "FCM_SERVER_KEY")
	}
	if c.DB.DSN == "" {
		missing = append(missing, "DB_DSN")
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}

// Location returns the time zone quiet hours are evaluated in.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Push.QuietHoursTZ)
	if err != nil {
		return time.UTC
	}
	return loc
}
