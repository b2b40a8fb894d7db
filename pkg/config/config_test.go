package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Capture: CaptureConfig{
			StartThreshold: 0.065,
			StopThreshold:  0.035,
			MinCapture:     800 * time.Millisecond,
			MinSilence:     1200 * time.Millisecond,
			MaxCapture:     60 * time.Second,
			SampleInterval: 100 * time.Millisecond,
			MinViableClip:  500 * time.Millisecond,
			UploadFloor:    3 * time.Second,
		},
		Presence: PresenceConfig{
			SweepInterval: 30 * time.Second,
			DemoteAfter:   2 * time.Minute,
			EvictAfter:    10 * time.Minute,
		},
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected defaults to validate: %v", err)
	}
}

func TestValidateRejectsBadOrderings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"start below stop", func(c *Config) { c.Capture.StartThreshold = 0.02 }},
		{"start equals stop", func(c *Config) { c.Capture.StartThreshold = c.Capture.StopThreshold }},
		{"max below min capture", func(c *Config) { c.Capture.MaxCapture = 500 * time.Millisecond }},
		{"upload floor below viable clip", func(c *Config) { c.Capture.UploadFloor = 100 * time.Millisecond }},
		{"evict before demote", func(c *Config) { c.Presence.EvictAfter = time.Minute }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg := validConfig()
	cfg.Database = DatabaseConfig{
		Host: "db", Port: "5432", User: "u", Password: "p", Name: "huddles", SSLMode: "disable",
	}
	want := "host=db port=5432 user=u password=p dbname=huddles sslmode=disable"
	if got := cfg.GetDatabaseDSN(); got != want {
		t.Fatalf("unexpected DSN %q", got)
	}
}
