package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/mkrupp/shopzone/internal/infra/config"
)

type storageConfig struct {
	Path      string `env:"PATH" default:"shopzone.json"`
	Namespace string `env:"NAMESPACE" default:"shopzone"`
}

type testConfig struct {
	EnvConfig

	Mode        string        `env:"MODE" default:"demo"`
	MaxLines    int           `env:"MAX_LINES" default:"42"`
	Cost        uint8         `env:"COST" default:"10"`
	Ratio       float64       `env:"RATIO" default:"0.5"`
	ClearOnExit bool          `env:"CLEAR_ON_EXIT" default:"true"`
	Timeout     time.Duration `env:"TIMEOUT" default:"5s"`
	Untagged    string
	Storage     storageConfig `envPrefix:"STORAGE_"`
}

func defaults() testConfig {
	return testConfig{
		Mode:        "demo",
		MaxLines:    42,
		Cost:        10,
		Ratio:       0.5,
		ClearOnExit: true,
		Timeout:     5 * time.Second,
		Storage: storageConfig{
			Path:      "shopzone.json",
			Namespace: "shopzone",
		},
	}
}

//nolint:paralleltest
func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		namespace string
		envVars   map[string]string
		mutate    func(*testConfig)
		wantErr   bool
	}{
		{
			name:    "uses defaults when nothing is set",
			envVars: map[string]string{},
			mutate:  func(*testConfig) {},
		},
		{
			name: "reads every supported kind",
			envVars: map[string]string{
				"MODE":          "remote",
				"MAX_LINES":     "7",
				"COST":          "12",
				"RATIO":         "1.25",
				"CLEAR_ON_EXIT": "false",
				"TIMEOUT":       "1m30s",
			},
			mutate: func(c *testConfig) {
				c.Mode = "remote"
				c.MaxLines = 7
				c.Cost = 12
				c.Ratio = 1.25
				c.ClearOnExit = false
				c.Timeout = 90 * time.Second
			},
		},
		{
			name:      "applies nested prefix",
			namespace: "SHOPZONE",
			envVars: map[string]string{
				"SHOPZONE_STORAGE_PATH": "/tmp/cart.json",
			},
			mutate: func(c *testConfig) {
				c.Storage.Path = "/tmp/cart.json"
			},
		},
		{
			name:      "prefers more specific namespace",
			namespace: "SHOPZONE_CLI",
			envVars: map[string]string{
				"MODE":              "least",
				"SHOPZONE_MODE":     "less",
				"SHOPZONE_CLI_MODE": "most",
			},
			mutate: func(c *testConfig) {
				c.Mode = "most"
			},
		},
		{
			name:      "falls back to less specific namespace",
			namespace: "SHOPZONE_CLI",
			envVars: map[string]string{
				"SHOPZONE_MODE": "remote",
			},
			mutate: func(c *testConfig) {
				c.Mode = "remote"
			},
		},
		{
			name:    "keeps explicit empty string",
			envVars: map[string]string{"MODE": ""},
			mutate: func(c *testConfig) {
				c.Mode = ""
			},
		},
		{
			name:    "fails on invalid int",
			envVars: map[string]string{"MAX_LINES": "many"},
			wantErr: true,
		},
		{
			name:    "fails on uint overflow",
			envVars: map[string]string{"COST": "300"},
			wantErr: true,
		},
		{
			name:    "fails on invalid float",
			envVars: map[string]string{"RATIO": "half"},
			wantErr: true,
		},
		{
			name:    "fails on invalid bool",
			envVars: map[string]string{"CLEAR_ON_EXIT": "maybe"},
			wantErr: true,
		},
		{
			name:    "fails on invalid duration",
			envVars: map[string]string{"TIMEOUT": "5"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := &testConfig{}
			err := Parse(context.Background(), cfg, tt.namespace)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)

			want := defaults()
			tt.mutate(&want)

			assert.Equal(t, want.Mode, cfg.Mode)
			assert.Equal(t, want.MaxLines, cfg.MaxLines)
			assert.Equal(t, want.Cost, cfg.Cost)
			assert.InDelta(t, want.Ratio, cfg.Ratio, 1e-9)
			assert.Equal(t, want.ClearOnExit, cfg.ClearOnExit)
			assert.Equal(t, want.Timeout, cfg.Timeout)
			assert.Empty(t, cfg.Untagged)
			assert.Equal(t, want.Storage, cfg.Storage)
			assert.Equal(t, tt.namespace, cfg.Namespace())
		})
	}
}

func TestParseRequiredVar(t *testing.T) {
	cfg := &struct {
		EnvConfig

		Secret string `env:"SECRET_WITHOUT_DEFAULT"`
	}{}

	err := Parse(context.Background(), cfg, "SHOPZONE_TEST")
	require.ErrorIs(t, err, ErrVarNotSet)
}

func TestParseUnsupportedType(t *testing.T) {
	cfg := &struct {
		EnvConfig

		Tags []string `env:"TAGS" default:"a,b"`
	}{}

	err := Parse(context.Background(), cfg, "")
	require.ErrorIs(t, err, ErrUnsupportedVarType)
}

func TestParseInvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  any
	}{
		{name: "non-pointer config", cfg: testConfig{}},
		{name: "non-struct pointer", cfg: new(string)},
		{
			name: "missing EnvConfig embedding",
			cfg: &struct {
				Value string `env:"VALUE"`
			}{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Parse(context.Background(), tt.cfg, "")
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
