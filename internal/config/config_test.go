package config

import (
	"flag"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"USAGELENS_HOST", "USAGELENS_PORT",
		"USAGELENS_DATA_DIR", "USAGELENS_DROP_DIR",
	} {
		t.Setenv(key, "")
	}
}

func TestDefault(t *testing.T) {
	clearEnv(t)
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if cfg.Host != "127.0.0.1" {
		t.Errorf("host = %q", cfg.Host)
	}
	if cfg.Port != 8080 {
		t.Errorf("port = %d", cfg.Port)
	}
	if cfg.WriteTimeout != 30*time.Second {
		t.Errorf("write timeout = %v", cfg.WriteTimeout)
	}
	if cfg.DBPath != filepath.Join(cfg.DataDir, "usage.db") {
		t.Errorf("db path %q not under data dir %q", cfg.DBPath, cfg.DataDir)
	}
	if cfg.DropDir != filepath.Join(cfg.DataDir, "drop") {
		t.Errorf("drop dir %q not under data dir %q", cfg.DropDir, cfg.DataDir)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("USAGELENS_HOST", "0.0.0.0")
	t.Setenv("USAGELENS_PORT", "9090")
	t.Setenv("USAGELENS_DATA_DIR", "/var/lib/usagelens")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Host != "0.0.0.0" {
		t.Errorf("host = %q", cfg.Host)
	}
	if cfg.Port != 9090 {
		t.Errorf("port = %d", cfg.Port)
	}
	if cfg.DBPath != filepath.Join("/var/lib/usagelens", "usage.db") {
		t.Errorf("db path = %q", cfg.DBPath)
	}
	if cfg.DropDir != filepath.Join("/var/lib/usagelens", "drop") {
		t.Errorf("drop dir = %q", cfg.DropDir)
	}
}

func TestLoadEnvBadPortIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("USAGELENS_PORT", "not-a-number")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("port = %d, want default 8080", cfg.Port)
	}
}

func TestLoadFlagsBeatEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("USAGELENS_PORT", "9090")
	t.Setenv("USAGELENS_DROP_DIR", "/env/drop")

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	RegisterServeFlags(fs)
	if err := fs.Parse([]string{
		"-port", "7070", "-drop-dir", "/flag/drop",
	}); err != nil {
		t.Fatalf("parsing flags: %v", err)
	}

	cfg, err := Load(fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 7070 {
		t.Errorf("port = %d, want flag value 7070", cfg.Port)
	}
	if cfg.DropDir != "/flag/drop" {
		t.Errorf("drop dir = %q", cfg.DropDir)
	}
}

func TestLoadUnsetFlagsDoNotOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("USAGELENS_HOST", "10.0.0.1")

	// Registered but never set on the command line; the flag
	// default must not clobber the env value.
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	RegisterServeFlags(fs)
	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parsing flags: %v", err)
	}

	cfg, err := Load(fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Host != "10.0.0.1" {
		t.Errorf("host = %q, want env value", cfg.Host)
	}
}

func TestLoadDataDirFlagMovesDropAndDB(t *testing.T) {
	clearEnv(t)
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	RegisterServeFlags(fs)
	if err := fs.Parse([]string{"-data-dir", "/custom"}); err != nil {
		t.Fatalf("parsing flags: %v", err)
	}

	cfg, err := Load(fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != filepath.Join("/custom", "usage.db") {
		t.Errorf("db path = %q", cfg.DBPath)
	}
	if cfg.DropDir != filepath.Join("/custom", "drop") {
		t.Errorf("drop dir = %q", cfg.DropDir)
	}
}
