package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"rncflow/internal/bootstrap/logging"
	"rncflow/internal/errs"
)

type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Log           LogConfig           `mapstructure:"log"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Server        ServerConfig        `mapstructure:"server"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Redis         RedisConfig         `mapstructure:"redis"`
	NATS          NATSConfig          `mapstructure:"nats"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	Timezone string `mapstructure:"timezone"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	JWTIssuer string `mapstructure:"jwt_issuer"`
}

type StorageConfig struct {
	Root         string        `mapstructure:"root"`
	MaxFileBytes int64         `mapstructure:"max_file_bytes"`
	IOTimeout    time.Duration `mapstructure:"io_timeout"`
}

type NotificationsConfig struct {
	Enabled               bool          `mapstructure:"enabled"`
	SweepInterval         time.Duration `mapstructure:"sweep_interval"`
	SweepTimeout          time.Duration `mapstructure:"sweep_timeout"`
	LockTTL               time.Duration `mapstructure:"lock_ttl"`
	ConsertoDeadlineRules bool          `mapstructure:"conserto_deadline_rules"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NATSConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

// Location resolves app.timezone; deadline day arithmetic runs in it.
func (c AppConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, errs.Wrapf(err, "load timezone %q", name)
	}
	return loc, nil
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithComponent(ctx, "bootstrap.config")

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.Bool("notifications_enabled", cfg.Notifications.Enabled),
		slog.Bool("redis_enabled", cfg.Redis.Enabled),
		slog.Bool("nats_enabled", cfg.NATS.Enabled),
	)

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database.dsn is required")
	}
	if _, err := c.App.Location(); err != nil {
		return err
	}
	if c.Storage.MaxFileBytes <= 0 {
		return fmt.Errorf("storage.max_file_bytes must be positive, got %d", c.Storage.MaxFileBytes)
	}
	if strings.TrimSpace(c.Storage.Root) == "" {
		return errors.New("storage.root is required")
	}
	if c.Notifications.SweepInterval < time.Second {
		return fmt.Errorf("notifications.sweep_interval must be at least 1s, got %s", c.Notifications.SweepInterval)
	}
	if c.Redis.Enabled && strings.TrimSpace(c.Redis.Addr) == "" {
		return errors.New("redis.addr is required when redis is enabled")
	}
	if c.NATS.Enabled && strings.TrimSpace(c.NATS.URL) == "" {
		return errors.New("nats.url is required when nats is enabled")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "rncflow")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.timezone", "America/Sao_Paulo")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/rncflow.sqlite")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("auth.jwt_issuer", "rncflow")
	v.SetDefault("storage.root", "data/uploads")
	v.SetDefault("storage.max_file_bytes", 10<<20)
	v.SetDefault("storage.io_timeout", "15s")
	v.SetDefault("notifications.enabled", true)
	v.SetDefault("notifications.sweep_interval", "1m")
	v.SetDefault("notifications.sweep_timeout", "50s")
	v.SetDefault("notifications.lock_ttl", "55s")
	v.SetDefault("notifications.conserto_deadline_rules", false)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.subject_prefix", "notifications.rnc")
}
