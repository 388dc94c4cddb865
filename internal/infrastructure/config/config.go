package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	ListenAddr string `env:"LISTEN_ADDR, default=:8080"`
	Env        string `env:"ENV,         default=development"`
	LogLevel   string `env:"LOG_LEVEL,   default=info"`

	Backend BackendConfig
	Store   StoreConfig
}

type BackendConfig struct {
	BaseURL string        `env:"BACKEND_BASE_URL, default=http://localhost:8000"`
	Timeout time.Duration `env:"BACKEND_TIMEOUT,  default=15s"`
}

type StoreConfig struct {
	// Backend selects the session store: "file" or "redis".
	Backend string `env:"STORE_BACKEND, default=file"`
	// StateDir is where the file store lives. Defaults to
	// <user config dir>/bakery-portal when empty.
	StateDir string `env:"STATE_DIR"`

	Redis RedisConfig
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	if cfg.Store.StateDir == "" {
		cfg.Store.StateDir = defaultStateDir()
	}
	return &cfg
}

func defaultStateDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".bakery-portal"
	}
	return filepath.Join(base, "bakery-portal")
}
