package config

import (
	"fmt"
	"log"
	"time"

	domainsync "watchkeeper/internal/domain/sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPath  = ".env"
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

type Config struct {
	Env    string
	DB     db
	Server server
	Sync   syncConfig
	Logger logger
}

type db struct {
	// пустой адрес - канонический набор хранится в памяти процесса
	DatabaseURI string `env:"DATABASE_URI"`
}

type server struct {
	RunAddress      string        `env:"RUN_ADDRESS"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT_SECONDS"`
}

type syncConfig struct {
	Token        string                  `env:"SYNC_TOKEN"`
	ResponseMode domainsync.ResponseMode `env:"SYNC_RESPONSE_MODE"`
}

type logger struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load читает конфигурацию из окружения и необязательного .env
func Load() (*Config, error) {
	if err := godotenv.Load(envPath); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("app_env", EnvLocal)
	v.SetDefault("run_address", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("sync_response_mode", string(domainsync.ResponseTouched))
	v.SetDefault("shutdown_timeout_seconds", 10)

	mode, err := domainsync.ParseResponseMode(v.GetString("sync_response_mode"))
	if err != nil {
		return nil, err
	}

	switch env := v.GetString("app_env"); env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return nil, fmt.Errorf("unknown APP_ENV %q", env)
	}

	return &Config{
		Env: v.GetString("app_env"),
		DB: db{
			DatabaseURI: v.GetString("database_uri"),
		},
		Server: server{
			RunAddress:      v.GetString("run_address"),
			ShutdownTimeout: time.Duration(v.GetInt("shutdown_timeout_seconds")) * time.Second,
		},
		Sync: syncConfig{
			Token:        v.GetString("sync_token"),
			ResponseMode: mode,
		},
		Logger: logger{LogLevel: v.GetString("log_level")},
	}, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}
