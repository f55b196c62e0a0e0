package config

import (
	"os"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("PORT")
	os.Unsetenv("ENV")
	os.Unsetenv("MLLP_ADDR")
	os.Unsetenv("PARSE_STRICT")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("expected default env 'development', got %s", cfg.Env)
	}
	if cfg.MLLPAddr != "" {
		t.Errorf("expected MLLP listener disabled by default, got %s", cfg.MLLPAddr)
	}
	if cfg.ParseStrict {
		t.Error("expected lenient parsing by default")
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	os.Setenv("PORT", "9090")
	os.Setenv("MLLP_ADDR", "0.0.0.0:2575")
	os.Setenv("PARSE_STRICT", "true")
	defer os.Unsetenv("PORT")
	defer os.Unsetenv("MLLP_ADDR")
	defer os.Unsetenv("PARSE_STRICT")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.MLLPAddr != "0.0.0.0:2575" {
		t.Errorf("expected MLLP addr 0.0.0.0:2575, got %s", cfg.MLLPAddr)
	}
	if !cfg.ParseStrict {
		t.Error("expected strict parsing to be enabled")
	}
}

func TestConfig_IsDev(t *testing.T) {
	c := &Config{Env: "development"}
	if !c.IsDev() {
		t.Error("expected IsDev() to return true for development")
	}

	c.Env = "production"
	if c.IsDev() {
		t.Error("expected IsDev() to return false for production")
	}
	if !c.IsProduction() {
		t.Error("expected IsProduction() to return true for production")
	}
}
