package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("api")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Service.Name != "api" {
		t.Errorf("expected service name api, got %s", cfg.Service.Name)
	}
	if cfg.Worker.PollInterval != 5000*time.Millisecond {
		t.Errorf("expected default poll interval 5000ms, got %s", cfg.Worker.PollInterval)
	}
	if cfg.Worker.BatchSize != 5 {
		t.Errorf("expected default batch size 5, got %d", cfg.Worker.BatchSize)
	}
}

func TestLoadWorkerEnv(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "250")
	t.Setenv("BATCH_SIZE", "2")

	cfg, err := Load("worker")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Worker.PollInterval != 250*time.Millisecond {
		t.Errorf("expected poll interval 250ms, got %s", cfg.Worker.PollInterval)
	}
	if cfg.Worker.BatchSize != 2 {
		t.Errorf("expected batch size 2, got %d", cfg.Worker.BatchSize)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Service.Port = 0 }, true},
		{"missing db host", func(c *Config) { c.Database.Host = "" }, true},
		{"conns inverted", func(c *Config) { c.Database.MaxConns = 1; c.Database.MinConns = 10 }, true},
		{"zero batch", func(c *Config) { c.Worker.BatchSize = 0 }, true},
		{"zero poll", func(c *Config) { c.Worker.PollInterval = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("test")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
