// Package config holds the environment-driven settings for a memfs
// mount. Command line flags layer on top of these in main.
package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is read once at startup from the process environment.
type Config struct {
	// LogLevel is one of ERROR, WARN, INFO, DEBUG, TRACE.
	LogLevel string `env:"MEMFS_LOG_LEVEL" env-default:"INFO"`

	// LogFile, when set, sends log output to a rotating file
	// instead of stderr.
	LogFile string `env:"MEMFS_LOG_FILE" env-default:""`

	// UID and GID override the owner reported for the filesystem
	// root. They default to the mounting user.
	UID int `env:"PUID" env-default:"-1"`
	GID int `env:"PGID" env-default:"-1"`

	// HashCheck enables the content-hash self-check on every read
	// and write. Debug aid; expensive on large files.
	HashCheck bool `env:"MEMFS_HASH_CHECK" env-default:"false"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if cfg.UID < 0 {
		cfg.UID = os.Getuid()
	}
	if cfg.GID < 0 {
		cfg.GID = os.Getgid()
	}

	return &cfg, nil
}
