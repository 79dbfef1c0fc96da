package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Store drivers
const (
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

type Config struct {
	Debug bool
	Port  string

	Store  StoreConfig
	Redis  RedisConfig
	SQLite SQLiteConfig
	Cloud  CloudConfig

	AllowedOrigins []string
}

type StoreConfig struct {
	Driver string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SQLiteConfig struct {
	Path string
}

// CloudConfig holds the hosted backend credentials. Leaving DatabaseURL or
// JWTSecret empty runs the service in local-only mode.
type CloudConfig struct {
	DatabaseURL  string
	JWTSecret    string
	StartupToken string
}

// Configured reports whether cloud sync can be enabled.
func (c CloudConfig) Configured() bool {
	return c.DatabaseURL != "" && c.JWTSecret != ""
}

func newViper() *viper.Viper {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", false)
	v.SetDefault("port", "8080")
	v.SetDefault("store.driver", DriverRedis)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 8)
	v.SetDefault("sqlite.path", "homework.db")
	v.SetDefault("cloud.databaseURL", "")
	v.SetDefault("cloud.jwtSecret", "")
	v.SetDefault("cloud.startupToken", "")
	v.SetDefault("cors.allowedOrigins", []string{"*"})

	// HOMEWORK_STORE_DRIVER -> store.driver
	v.SetEnvPrefix("homework")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration from the environment. A .env file in the working
// directory is loaded first when it exists.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, errors.Wrap(err, "loading .env")
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "checking .env")
	}
	return fromViper(newViper())
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Debug: v.GetBool("debug"),
		Port:  v.GetString("port"),
		Store: StoreConfig{Driver: strings.ToLower(v.GetString("store.driver"))},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		SQLite: SQLiteConfig{Path: v.GetString("sqlite.path")},
		Cloud: CloudConfig{
			DatabaseURL:  v.GetString("cloud.databaseURL"),
			JWTSecret:    v.GetString("cloud.jwtSecret"),
			StartupToken: v.GetString("cloud.startupToken"),
		},
		AllowedOrigins: splitList(v.GetStringSlice("cors.allowedOrigins")),
	}

	switch cfg.Store.Driver {
	case DriverRedis, DriverSQLite, DriverMemory:
	default:
		return nil, errors.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	return cfg, nil
}

// splitList accepts both comma and whitespace separated values.
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}
