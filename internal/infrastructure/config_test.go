package infra

import (
	"strings"
	"testing"
)

func validConfig() *AppConfig {
	cfg := new(AppConfig)
	cfg.AppID = "course-gateway"
	cfg.Env = EnvDevelopment
	cfg.Remote.BaseURL = "http://localhost:8080/api"
	cfg.Progress.Store = ProgressStoreRemote
	cfg.Logging.Level = "info"
	cfg.Security.IDLength = 24
	cfg.Security.JWTMethod = "HS256"
	cfg.Security.JWTSecret = "secret"
	cfg.Security.TokenName = "cgw_token"
	return cfg
}

func TestValidateConfigAcceptsDefaults(t *testing.T) {
	if err := validateConfig(validConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateConfigReportsFields(t *testing.T) {
	cfg := validConfig()
	cfg.Security.JWTSecret = ""
	cfg.Env = "staging"

	err := validateConfig(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"jwt_secret is required", "env must be one of"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %q", err, want)
		}
	}
}

func TestValidateConfigSQLStoreNeedsDatabase(t *testing.T) {
	cfg := validConfig()
	cfg.Progress.Store = ProgressStoreSQL
	cfg.Database.Driver = "postgres"

	err := validateConfig(cfg)
	if err == nil || !strings.Contains(err.Error(), "progress.store=sql") {
		t.Fatalf("expected database requirement error, got %v", err)
	}

	cfg.Database.Schema = "learning"
	cfg.Database.User = "gateway"
	if err := validateConfig(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
