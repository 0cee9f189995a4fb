package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	RuleStoreMemory   = "memory"
	RuleStoreMongo    = "mongo"
	RuleStorePostgres = "postgres"
)

const (
	minFetchTimeout = time.Second
	maxFetchTimeout = 10 * time.Second
	maxStayNights   = 3650
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                string
	LogLevel           string
	LogSource          bool
	HTTPAddr           string
	Currency           string
	RuleStore          string
	RuleFixtures       string
	RuleFetchTimeout   time.Duration
	MaxStayNights      int
	MongoURI           string
	MongoDB            string
	PostgresDSN        string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	IdempotencyTTL     time.Duration
	KafkaBrokers       []string
	KafkaTopicPrefix   string
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration
	ShutdownTimeout    time.Duration
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:              getEnv("APP_ENV", "dev"),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", "info")),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		Currency:         strings.ToUpper(getEnv("CURRENCY", "KRW")),
		RuleStore:        strings.ToLower(getEnv("RULE_STORE", RuleStoreMemory)),
		RuleFixtures:     getEnv("RULE_FIXTURES", "data/pricing_rules.json"),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDB:          getEnv("MONGO_DB", "campstation"),
		PostgresDSN:      os.Getenv("POSTGRES_DSN"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", ""),
	}
	for _, raw := range strings.Split(getEnv("KAFKA_BROKERS", ""), ",") {
		if b := strings.TrimSpace(raw); b != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
		}
	}

	var err error
	if cfg.LogSource, err = parseBoolEnv("LOG_SOURCE", true); err != nil {
		return Config{}, err
	}
	if cfg.RedisDB, err = parseIntEnv("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.MaxStayNights, err = parseIntEnv("MAX_STAY_NIGHTS", 365); err != nil {
		return Config{}, err
	}
	if cfg.RuleFetchTimeout, err = parseDurationEnv("RULE_FETCH_TIMEOUT", 3*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = parseDurationEnv("IDEMP_TTL", 168*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.OutboxPollInterval, err = parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = parseDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RetryBackoff, err = parseDurationList("RETRY_BACKOFF", "1s,5s,30s"); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.RuleFetchTimeout < minFetchTimeout || c.RuleFetchTimeout > maxFetchTimeout {
		return fmt.Errorf("%w: RULE_FETCH_TIMEOUT %s outside [%s, %s]", ErrInvalidConfig, c.RuleFetchTimeout, minFetchTimeout, maxFetchTimeout)
	}
	if c.MaxStayNights < 1 || c.MaxStayNights > maxStayNights {
		return fmt.Errorf("%w: MAX_STAY_NIGHTS %d outside [1, %d]", ErrInvalidConfig, c.MaxStayNights, maxStayNights)
	}
	switch c.RuleStore {
	case RuleStoreMemory:
	case RuleStoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("%w: MONGO_URI is required for RULE_STORE=mongo", ErrInvalidConfig)
		}
	case RuleStorePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: POSTGRES_DSN is required for RULE_STORE=postgres", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown RULE_STORE %q", ErrInvalidConfig, c.RuleStore)
	}
	if len(c.KafkaBrokers) > 0 && c.MongoURI == "" {
		return fmt.Errorf("%w: KAFKA_BROKERS needs MONGO_URI for the outbox", ErrInvalidConfig)
	}
	if c.IdempotencyTTL <= 0 {
		return fmt.Errorf("%w: IDEMP_TTL must be positive", ErrInvalidConfig)
	}
	if len(c.Currency) != 3 {
		return fmt.Errorf("%w: CURRENCY %q is not an ISO code", ErrInvalidConfig, c.Currency)
	}
	return nil
}

// PublishesEvents reports whether confirmations are forwarded to Kafka.
func (c Config) PublishesEvents() bool {
	return len(c.KafkaBrokers) > 0
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseDurationList(key, def string) ([]time.Duration, error) {
	var out []time.Duration
	for _, raw := range strings.Split(getEnv(key, def), ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return nil, fmt.Errorf("invalid %s component %q: %w", key, raw, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func parseIntEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %q", key, raw)
	}
	return n, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}
