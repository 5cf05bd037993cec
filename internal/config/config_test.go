package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseDir != "/opt/sifis-home" {
		t.Fatalf("base dir: %q", cfg.BaseDir)
	}
	if cfg.ScriptsDir != "/opt/sifis-home/scripts" {
		t.Fatalf("scripts dir: %q", cfg.ScriptsDir)
	}
	if cfg.InfoFilePath() != "/opt/sifis-home/device.json" {
		t.Fatalf("info path: %q", cfg.InfoFilePath())
	}
	if cfg.ListenAddr() != "0.0.0.0:8000" {
		t.Fatalf("listen addr: %q", cfg.ListenAddr())
	}
	if cfg.StatusTimeout != 2*time.Second || cfg.ScriptTimeout != 30*time.Second {
		t.Fatalf("timeouts: %v %v", cfg.StatusTimeout, cfg.ScriptTimeout)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SIFIS_HOME_PATH", "/tmp/sifis-home")
	t.Setenv("MOBILE_API_PORT", "9000")
	t.Setenv("MOBILE_API_LOG", "debug")
	t.Setenv("MOBILE_API_SCRIPT_TIMEOUT", "10s")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseDir != "/tmp/sifis-home" {
		t.Fatalf("base dir: %q", cfg.BaseDir)
	}
	if cfg.ScriptsDir != "/tmp/sifis-home/scripts" {
		t.Fatalf("scripts dir should follow base dir: %q", cfg.ScriptsDir)
	}
	if cfg.Port != 9000 {
		t.Fatalf("port: %d", cfg.Port)
	}
	if cfg.Level().String() != "debug" {
		t.Fatalf("log level: %v", cfg.Level())
	}
	if cfg.ScriptTimeout != 10*time.Second {
		t.Fatalf("script timeout: %v", cfg.ScriptTimeout)
	}
}

func TestYAMLFileWithEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "mobile-api.yaml")
	doc := "base_dir: /srv/sifis\nport: 8080\nlog_level: warn\n"
	if err := os.WriteFile(file, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigFileEnv, file)
	t.Setenv("MOBILE_API_PORT", "9001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseDir != "/srv/sifis" {
		t.Fatalf("base dir from file: %q", cfg.BaseDir)
	}
	if cfg.Port != 9001 {
		t.Fatalf("env should override file: %d", cfg.Port)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("log level from file: %q", cfg.LogLevel)
	}
}

func TestMissingConfigFileIsAnError(t *testing.T) {
	t.Setenv(ConfigFileEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for an explicitly configured missing file")
	}
}

func TestBadLogLevelFallsBackToInfo(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "noisy"
	if cfg.Level().String() != "info" {
		t.Fatalf("expected info fallback, got %v", cfg.Level())
	}
}
