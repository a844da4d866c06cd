package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// WooCommerce credentials are checked by the client on first use so the
	// process can still serve /healthz and local progress without them.
	WCBaseURL        string        `env:"WC_BASE_URL"`
	WCConsumerKey    string        `env:"WC_CONSUMER_KEY"`
	WCConsumerSecret string        `env:"WC_CONSUMER_SECRET"`
	RemoteTimeout    time.Duration `env:"REMOTE_TIMEOUT" envDefault:"15s"`

	ProgressBackend string `env:"PROGRESS_BACKEND" envDefault:"gorm"` // gorm or pebble
	PebbleDir       string `env:"PEBBLE_DIR" envDefault:"data/progress"`

	DBDriver               string `env:"DB_DRIVER" envDefault:"mysql"` // mysql or sqlite
	DBUser                 string `env:"DB_USER"`
	DBPassword             string `env:"DB_PASSWORD"`
	DBHost                 string `env:"DB_HOST"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName                 string `env:"DB_NAME"`
	DBPort                 string `env:"DB_PORT" envDefault:"3306"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`
	SQLitePath             string `env:"SQLITE_PATH" envDefault:"progress.db"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	OperatorToken  string   `env:"OPERATOR_TOKEN"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	cfg.ProgressBackend = strings.ToLower(strings.TrimSpace(cfg.ProgressBackend))
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	return &cfg, nil
}

// HasRemote reports whether all three WooCommerce settings are present.
func (c *Config) HasRemote() bool {
	return c.WCBaseURL != "" && c.WCConsumerKey != "" && c.WCConsumerSecret != ""
}
