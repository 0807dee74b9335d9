// Package config holds server configuration, layered as
// defaults < environment < explicitly-set flags.
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	DataDir      string        `json:"data_dir"`
	DBPath       string        `json:"-"`
	DropDir      string        `json:"drop_dir"`
	WriteTimeout time.Duration `json:"-"`
}

// Default returns a Config with default values. The drop directory
// is where the watcher picks up usage-log and catalog files.
func Default() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf(
			"determining home directory: %w", err,
		)
	}
	dataDir := filepath.Join(home, ".usagelens")
	return Config{
		Host:         "127.0.0.1",
		Port:         8080,
		DataDir:      dataDir,
		DBPath:       filepath.Join(dataDir, "usage.db"),
		DropDir:      filepath.Join(dataDir, "drop"),
		WriteTimeout: 30 * time.Second,
	}, nil
}

// Load builds a Config by layering: defaults < env < flags.
// The provided FlagSet must already be parsed by the caller.
// Only flags that were explicitly set override the lower layers.
func Load(fs *flag.FlagSet) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	cfg.loadEnv()
	applyFlags(&cfg, fs)
	cfg.DBPath = filepath.Join(cfg.DataDir, "usage.db")
	return cfg, nil
}

func (c *Config) loadEnv() {
	if v := os.Getenv("USAGELENS_HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("USAGELENS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("USAGELENS_DATA_DIR"); v != "" {
		c.DataDir = v
		c.DropDir = filepath.Join(v, "drop")
	}
	if v := os.Getenv("USAGELENS_DROP_DIR"); v != "" {
		c.DropDir = v
	}
}

// RegisterServeFlags registers serve-command flags on fs.
// The caller must call fs.Parse before passing fs to Load.
func RegisterServeFlags(fs *flag.FlagSet) {
	fs.String("host", "127.0.0.1", "Host to bind to")
	fs.Int("port", 8080, "Port to listen on")
	fs.String("data-dir", "", "Data directory (database and drop dir)")
	fs.String("drop-dir", "", "Directory watched for usage-log drops")
}

// applyFlags copies explicitly-set flags from fs into cfg.
func applyFlags(cfg *Config, fs *flag.FlagSet) {
	if fs == nil {
		return
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Host = f.Value.String()
		case "port":
			// flag already validated the int; ignore parse error
			cfg.Port, _ = strconv.Atoi(f.Value.String())
		case "data-dir":
			cfg.DataDir = f.Value.String()
			cfg.DropDir = filepath.Join(cfg.DataDir, "drop")
		case "drop-dir":
			cfg.DropDir = f.Value.String()
		}
	})
}
