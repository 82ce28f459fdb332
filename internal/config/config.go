package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	Store     StoreConfig     `mapstructure:"store"`
	Log       LogConfig       `mapstructure:"log"`
	Websocket WebsocketConfig `mapstructure:"websocket"`
	Persist   PersistConfig   `mapstructure:"persist"`
}

type HTTPConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	GinMode        string   `mapstructure:"gin_mode"`
}

// StoreConfig selects the durable session store. Driver is "postgres" or "sqlite".
type StoreConfig struct {
	Driver      string `mapstructure:"driver"`
	PostgresURL string `mapstructure:"postgres_url"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	// AutoMigrate runs the postgres migrations on startup
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type WebsocketConfig struct {
	OutboxSize          int     `mapstructure:"outbox_size"`
	RateLimit           float64 `mapstructure:"rate_limit"`
	Burst               int     `mapstructure:"burst"`
	PingIntervalSeconds int     `mapstructure:"ping_interval_seconds"`
	ReadTimeoutSeconds  int     `mapstructure:"read_timeout_seconds"`
}

type PersistConfig struct {
	QueueSize       int `mapstructure:"queue_size"`
	TimeoutMs       int `mapstructure:"timeout_ms"`
	LookupTimeoutMs int `mapstructure:"lookup_timeout_ms"`
}

func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:           ":5000",
			AllowedOrigins: []string{"http://localhost:3000"},
			GinMode:        "release",
		},
		Store: StoreConfig{
			Driver:      "postgres",
			SQLitePath:  "data/workshop.db",
			AutoMigrate: true,
		},
		Log: LogConfig{
			Level: "info",
		},
		Websocket: WebsocketConfig{
			OutboxSize:          256,
			RateLimit:           10,
			Burst:               20,
			PingIntervalSeconds: 30,
			ReadTimeoutSeconds:  60,
		},
		Persist: PersistConfig{
			QueueSize:       1024,
			TimeoutMs:       5000,
			LookupTimeoutMs: 2000,
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("http.allowed_origins", d.HTTP.AllowedOrigins)
	v.SetDefault("http.gin_mode", d.HTTP.GinMode)

	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.postgres_url", d.Store.PostgresURL)
	v.SetDefault("store.sqlite_path", d.Store.SQLitePath)
	v.SetDefault("store.auto_migrate", d.Store.AutoMigrate)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.pretty", d.Log.Pretty)

	v.SetDefault("websocket.outbox_size", d.Websocket.OutboxSize)
	v.SetDefault("websocket.rate_limit", d.Websocket.RateLimit)
	v.SetDefault("websocket.burst", d.Websocket.Burst)
	v.SetDefault("websocket.ping_interval_seconds", d.Websocket.PingIntervalSeconds)
	v.SetDefault("websocket.read_timeout_seconds", d.Websocket.ReadTimeoutSeconds)

	v.SetDefault("persist.queue_size", d.Persist.QueueSize)
	v.SetDefault("persist.timeout_ms", d.Persist.TimeoutMs)
	v.SetDefault("persist.lookup_timeout_ms", d.Persist.LookupTimeoutMs)
}

// Load reads defaults, the optional config file and WORKSHOP_* environment variables.
// e.g. WORKSHOP_STORE_POSTGRES_URL for store.postgres_url
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("workshop")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/workshop")
	}

	v.SetEnvPrefix("WORKSHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "postgres":
		if c.Store.PostgresURL == "" {
			return fmt.Errorf("store.postgres_url is required for the postgres driver")
		}
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	if len(c.HTTP.AllowedOrigins) == 0 {
		return fmt.Errorf("http.allowed_origins must not be empty")
	}
	if c.Websocket.OutboxSize < 1 || c.Websocket.Burst < 1 || c.Websocket.RateLimit <= 0 {
		return fmt.Errorf("websocket outbox_size, burst and rate_limit must be positive")
	}
	if c.Websocket.PingIntervalSeconds < 1 || c.Websocket.ReadTimeoutSeconds <= c.Websocket.PingIntervalSeconds {
		return fmt.Errorf("websocket.read_timeout_seconds must exceed a positive ping_interval_seconds")
	}
	if c.Persist.QueueSize < 1 {
		return fmt.Errorf("persist.queue_size must be positive")
	}
	return nil
}

func (w WebsocketConfig) PingInterval() time.Duration {
	return time.Duration(w.PingIntervalSeconds) * time.Second
}

func (w WebsocketConfig) ReadTimeout() time.Duration {
	return time.Duration(w.ReadTimeoutSeconds) * time.Second
}

func (p PersistConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutMs) * time.Millisecond
}

func (p PersistConfig) LookupTimeout() time.Duration {
	return time.Duration(p.LookupTimeoutMs) * time.Millisecond
}
