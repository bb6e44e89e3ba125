package meta

import (
	"errors"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantField string
	}{
		{"default", func(*Config) {}, ""},
		{"no literals", func(c *Config) { c.MaxLiterals = 0 }, "MaxLiterals"},
		{"too many literals", func(c *Config) { c.MaxLiterals = 1001 }, "MaxLiterals"},
		{"literals ignored without prefilter", func(c *Config) {
			c.EnablePrefilter = false
			c.MaxLiterals = 0
		}, ""},
		{"negative timeout", func(c *Config) { c.FallbackTimeout = -time.Second }, "FallbackTimeout"},
		{"negative register arrays", func(c *Config) { c.MaxRegisterArrays = -1 }, "MaxRegisterArrays"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(&config)
			err := config.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("Validate() = %v, want *ConfigError", err)
			}
			if ce.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ce.Field, tt.wantField)
			}
		})
	}
}

func TestCompileRejectsInvalidConfig(t *testing.T) {
	config := DefaultConfig()
	config.MaxLiterals = -1
	if _, err := Compile("a", 0, config); err == nil {
		t.Fatal("Compile with invalid config should fail")
	}
}
