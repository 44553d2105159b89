package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type HTTPServer struct {
	Addr string `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
}

type Database struct {
	Host            string        `yaml:"PG_HOST" env:"PG_HOST" env-default:"localhost"`
	Port            string        `yaml:"PG_PORT" env:"PG_PORT" env-default:"5432"`
	User            string        `yaml:"PG_USER" env:"PG_USER" env-required:"true"`
	Password        string        `yaml:"PG_PASSWORD" env:"PG_PASSWORD" env-required:"true"`
	Name            string        `yaml:"PG_DBNAME" env:"PG_DBNAME" env-required:"true"`
	SSLMode         string        `yaml:"PG_SSLMODE" env:"PG_SSLMODE" env-default:"require"`
	MaxOpenConns    int           `yaml:"MAX_OPEN_CONNS" env:"PG_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int           `yaml:"MAX_IDLE_CONNS" env:"PG_MAX_IDLE_CONNS" env-default:"25"`
	ConnMaxLifetime time.Duration `yaml:"CONN_MAX_LIFETIME" env:"PG_CONN_MAX_LIFETIME" env-default:"5m"`
	ConnMaxIdleTime time.Duration `yaml:"CONN_MAX_IDLE_TIME" env:"PG_CONN_MAX_IDLE_TIME" env-default:"1m"`
}

type RedisConnect struct {
	Host     string `yaml:"REDIS_HOST" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"REDIS_PORT" env:"REDIS_PORT" env-default:"6379"`
	Username string `yaml:"REDIS_USER" env:"REDIS_USER"`
	Password string `yaml:"REDIS_PASSWORD" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"REDIS_DB" env:"REDIS_DB" env-default:"0"`
}

type CacheConfig struct {
	DefaultTTL time.Duration `yaml:"default_ttl" env:"CACHE_DEFAULT_TTL" env-default:"5m"`
}

type Stripe struct {
	APIKey        string `yaml:"STRIPE_API_KEY" env:"STRIPE_API_KEY" env-default:""`
	WebhookSecret string `yaml:"STRIPE_WEBHOOK_SECRET" env:"STRIPE_WEBHOOK_SECRET" env-default:""`
	Currency      string `yaml:"STRIPE_CURRENCY" env:"STRIPE_CURRENCY" env-default:"eur"`
}

type SendGrid struct {
	APIKey    string `yaml:"API_KEY" env:"SENDGRID_API_KEY" env-default:""`
	FromEmail string `yaml:"FROM_EMAIL" env:"SENDGRID_FROM_EMAIL" env-default:"reservas@opaquedelicia.pt"`
	FromName  string `yaml:"FROM_NAME" env:"SENDGRID_FROM_NAME" env-default:"Opa que delícia"`
}

type Security struct {
	JWTKey         string `yaml:"JWT_KEY" env:"JWT_KEY" env-required:"true"`
	JWTExpiryHours int    `yaml:"JWT_EXPIRY_HOURS" env:"JWT_EXPIRY_HOURS" env-default:"24"`
}

type OtelConfig struct {
	ServiceName      string  `yaml:"SERVICE_NAME" env:"OTEL_SERVICE_NAME" env-default:"opa-restaurant-platform"`
	ExporterEndpoint string  `yaml:"EXPORTER_ENDPOINT" env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:""`
	SamplerRatio     float64 `yaml:"SAMPLER_RATIO" env:"OTEL_SAMPLER_RATIO" env-default:"1.0"`
}

type Kafka struct {
	Brokers []string `yaml:"BROKERS" env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `yaml:"TOPIC" env:"KAFKA_TOPIC" env-default:"payment-status"`
}

// Watcher tunes the payment status poller.
type Watcher struct {
	BaseURL          string        `yaml:"base_url" env:"WATCHER_BASE_URL" env-default:"http://localhost:8080"`
	Interval         time.Duration `yaml:"interval" env:"WATCHER_INTERVAL" env-default:"10s"`
	RequestTimeout   time.Duration `yaml:"request_timeout" env:"WATCHER_REQUEST_TIMEOUT" env-default:"5s"`
	FailureThreshold int           `yaml:"failure_threshold" env:"WATCHER_FAILURE_THRESHOLD" env-default:"3"`
	MaxBackoff       time.Duration `yaml:"max_backoff" env:"WATCHER_MAX_BACKOFF" env-default:"2m"`
	MaxFailures      int           `yaml:"max_failures" env:"WATCHER_MAX_FAILURES" env-default:"0"`
	Locale           string        `yaml:"locale" env:"WATCHER_LOCALE" env-default:"pt"`
}

type Countdown struct {
	MultibancoTTL time.Duration `yaml:"multibanco_ttl" env:"COUNTDOWN_MULTIBANCO_TTL" env-default:"72h"`
	MBWayTTL      time.Duration `yaml:"mbway_ttl" env:"COUNTDOWN_MBWAY_TTL" env-default:"5m"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"COUNTDOWN_SWEEP_INTERVAL" env-default:"1m"`
}

type Payments struct {
	MultibancoEntity string `yaml:"multibanco_entity" env:"MULTIBANCO_ENTITY" env-default:"21800"`
	Locale           string `yaml:"locale" env:"PAYMENTS_LOCALE" env-default:"pt"`
}

// RateConfig bounds how often one client may poll the payment status endpoint.
type RateConfig struct {
	MaxRequests int64         `yaml:"max_requests" env:"RATE_LIMIT_MAX_REQUESTS" env-default:"60"`
	WindowSize  time.Duration `yaml:"window_size" env:"RATE_LIMIT_WINDOW_SIZE" env-default:"1m"`
}

type Config struct {
	Env          string `yaml:"env" env:"ENV" env-required:"true"`
	HTTPServer   `yaml:"http_server"`
	Database     Database     `yaml:"database"`
	RedisConnect RedisConnect `yaml:"redis"`
	Cache        CacheConfig  `yaml:"cache"`
	Stripe       Stripe       `yaml:"stripe"`
	SendGrid     SendGrid     `yaml:"sendgrid"`
	Security     Security     `yaml:"security"`
	Otel         OtelConfig   `yaml:"otel"`
	Kafka        Kafka        `yaml:"kafka"`
	Watcher      Watcher      `yaml:"watcher"`
	Countdown    Countdown    `yaml:"countdown"`
	Payments     Payments     `yaml:"payments"`
	RateConfig   RateConfig   `yaml:"rate_limit"`
}

func MustLoad() *Config {

	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {

		flags := flag.String("config", "", "gets the config flag value")

		flag.Parse()

		configPath = *flags

		if configPath == "" {
			configPath = "config/local.yaml"
		}

	}

	cfg, err := LoadConfigFromPath(configPath)
	if err != nil {
		log.Fatalf("can not read config file: %s", err.Error())
	}

	return cfg

}

func LoadConfigFromPath(configPath string) (*Config, error) {

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return &cfg, nil
}

// LoadWatcherConfig reads only the watcher and countdown sections, falling back to
// defaults and environment variables when configPath is empty.
func LoadWatcherConfig(configPath string) (*Watcher, *Countdown, error) {

	var cfg struct {
		Watcher   Watcher   `yaml:"watcher"`
		Countdown Countdown `yaml:"countdown"`
	}

	var err error
	if configPath == "" {
		err = cleanenv.ReadEnv(&cfg)
	} else {
		err = cleanenv.ReadConfig(configPath, &cfg)
	}

	if err != nil {
		return nil, nil, fmt.Errorf("failed to read watcher config: %w", err)
	}

	return &cfg.Watcher, &cfg.Countdown, nil
}

func (d *Database) GetDSN() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

func (r *RedisConnect) GetDSN() string {
	return fmt.Sprintf("redis://%s:%s@%s:%s", r.Username, r.Password, r.Host, r.Port)
}
