package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerAddress = "localhost:8080"
	defaultLogLevel      = "info"
	defaultEnv           = "local"
	defaultConfigDir     = ".watchkeeper"
)

type Config struct {
	Env           string `mapstructure:"app_env"`
	ServerAddress string `mapstructure:"server_address"`
	EnableTLS     bool   `mapstructure:"enable_tls"`
	LogLevel      string `mapstructure:"log_level"`
	ConfigDir     string `mapstructure:"config_dir"`

	SyncEnabled          bool          `mapstructure:"sync_enabled"`
	SyncInterval         time.Duration `mapstructure:"-"`
	SyncRetryBase        time.Duration `mapstructure:"-"`
	SyncRetryMax         time.Duration `mapstructure:"-"`
	ConnectivityInterval time.Duration `mapstructure:"-"`
	SyncToken            string        `mapstructure:"sync_token"`

	TMDBAccessToken string `mapstructure:"tmdb_access_token"`

	// MemoryFallback разрешает работу без SQLite: изменения живут только
	// до завершения процесса
	MemoryFallback bool `mapstructure:"memory_fallback"`

	DataPath     string `mapstructure:"-"`
	DeviceIDPath string `mapstructure:"-"`
	SignalPath   string `mapstructure:"-"`
	LogPath      string `mapstructure:"-"`
}

// Load загружает конфигурацию клиента: .env, переменные окружения и
// необязательный файл конфигурации (YAML/TOML/JSON по расширению)
func Load(configFile string) (*Config, error) {
	envPath := ".env"
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("ошибка загрузки .env файла: %w", err)
		}
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Устанавливаем значения по умолчанию
	v.SetDefault("app_env", defaultEnv)
	v.SetDefault("server_address", defaultServerAddress)
	v.SetDefault("enable_tls", false)
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("config_dir", defaultConfigDir)
	v.SetDefault("sync_enabled", true)
	v.SetDefault("sync_interval_seconds", 30)
	v.SetDefault("sync_retry_base_seconds", 2)
	v.SetDefault("sync_retry_max_seconds", 300)
	v.SetDefault("connectivity_interval_seconds", 15)
	v.SetDefault("memory_fallback", false)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
		}
	}

	configDir := v.GetString("config_dir")
	if !filepath.IsAbs(configDir) {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			homeDir = "."
		}
		configDir = filepath.Join(homeDir, configDir)
	}

	cfg := &Config{
		Env:                  v.GetString("app_env"),
		ServerAddress:        v.GetString("server_address"),
		EnableTLS:            v.GetBool("enable_tls"),
		LogLevel:             v.GetString("log_level"),
		ConfigDir:            configDir,
		SyncEnabled:          v.GetBool("sync_enabled"),
		SyncInterval:         seconds(v, "sync_interval_seconds"),
		SyncRetryBase:        seconds(v, "sync_retry_base_seconds"),
		SyncRetryMax:         seconds(v, "sync_retry_max_seconds"),
		ConnectivityInterval: seconds(v, "connectivity_interval_seconds"),
		SyncToken:            v.GetString("sync_token"),
		TMDBAccessToken:      v.GetString("tmdb_access_token"),
		MemoryFallback:       v.GetBool("memory_fallback"),
		DataPath:             filepath.Join(configDir, "watchlist.db"),
		DeviceIDPath:         filepath.Join(configDir, "device_id"),
		SignalPath:           filepath.Join(configDir, "watchlist.signal"),
		LogPath:              filepath.Join(configDir, "logs", "client.log"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("ошибка конфигурации: %w", err)
	}

	return cfg, nil
}

// MustLoad загружает конфигурацию или завершает процесс
func MustLoad(configFile string) *Config {
	cfg, err := Load(configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}

func seconds(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetInt(key)) * time.Second
}

func (c *Config) validate() error {
	if c.ServerAddress == "" {
		return fmt.Errorf("server_address не может быть пустым")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("sync_interval_seconds должен быть положительным")
	}
	if c.SyncRetryBase <= 0 || c.SyncRetryMax < c.SyncRetryBase {
		return fmt.Errorf("некорректные sync_retry_base_seconds/sync_retry_max_seconds")
	}
	if c.ConnectivityInterval <= 0 {
		return fmt.Errorf("connectivity_interval_seconds должен быть положительным")
	}
	return nil
}

// EnsureDirs создает каталог данных клиента
func (c *Config) EnsureDirs() error {
	return os.MkdirAll(c.ConfigDir, 0o700)
}

// BaseURL возвращает адрес сервера со схемой
func (c *Config) BaseURL() string {
	if strings.HasPrefix(c.ServerAddress, "http://") || strings.HasPrefix(c.ServerAddress, "https://") {
		return strings.TrimRight(c.ServerAddress, "/")
	}
	scheme := "http"
	if c.EnableTLS {
		scheme = "https"
	}
	return scheme + "://" + strings.TrimRight(c.ServerAddress, "/")
}
