package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(*Config) bool
	}{
		{
			name: "loads with all vars set",
			envVars: map[string]string{
				"PORT":         "9000",
				"ENV":          "production",
				"API_KEY":      "secret123",
				"STORAGE_PATH": "/data",
				"STORE_DRIVER": "postgres",
				"DATABASE_URL": "postgres://localhost/hub",
			},
			wantErr: false,
			check: func(c *Config) bool {
				return c.Port == 9000 &&
					c.Environment == "production" &&
					c.APIKey == "secret123" &&
					c.DatabaseURL == "postgres://localhost/hub"
			},
		},
		{
			name: "uses defaults when optional vars missing",
			envVars: map[string]string{
				"API_KEY": "secret123",
			},
			wantErr: false,
			check: func(c *Config) bool {
				return c.Port == 8000 &&
					c.Environment == "development" &&
					c.StoreDriver == "sqlite" &&
					c.StoragePath == "./storage" &&
					c.HeartbeatInterval.Seconds() == 30
			},
		},
		{
			name: "derives sqlite path from storage path",
			envVars: map[string]string{
				"API_KEY":      "secret123",
				"STORAGE_PATH": "/var/lib/hub",
			},
			wantErr: false,
			check: func(c *Config) bool {
				return c.SQLitePath == "/var/lib/hub/hub.db"
			},
		},
		{
			name:    "fails when API_KEY missing",
			envVars: map[string]string{},
			wantErr: true,
			check:   nil,
		},
		{
			name: "fails when postgres driver has no DATABASE_URL",
			envVars: map[string]string{
				"API_KEY":      "secret123",
				"STORE_DRIVER": "postgres",
			},
			wantErr: true,
			check:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := Load()

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if tt.check != nil && !tt.check(cfg) {
				t.Errorf("config check failed: %+v", cfg)
			}
		})
	}
}
