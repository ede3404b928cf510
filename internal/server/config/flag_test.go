package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		initial     *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"cmd",
			"-a", "127.0.0.1:8080", "-g", "127.0.0.1:9090", "-d", "memory", "-s", "secret",
			"-t", "30", "-m", "5", "-b", "10", "-r", "2.5", "-u", "4", "-l", "debug",
		},
			initial: &Config{},
			expected: &Config{
				EndpointAddrHTTP:      "127.0.0.1:8080",
				EndpointAddrGRPC:      "127.0.0.1:9090",
				DatabaseDSN:           "memory",
				SecretKey:             "secret",
				TokenValidityDuration: 30 * time.Minute,
				MaxSessionsPerUser:    5,
				BcryptCost:            10,
				RateLimitRPS:          2.5,
				RateLimitBurst:        4,
				LogLevel:              "debug",
			}},
		{name: "unset -t keeps sub-minute validity", args: []string{"cmd", "-s", "k"},
			initial:  &Config{TokenValidityDuration: 90 * time.Second},
			expected: &Config{SecretKey: "k", TokenValidityDuration: 90 * time.Second}},
		{name: "foreign flags are ignored", args: []string{"cmd", "-c", "cfg.json", "-test.v", "-d", "db"},
			initial:  &Config{},
			expected: &Config{DatabaseDSN: "db"}},
		{name: "bad int panics", args: []string{"cmd", "-m", "many"},
			initial:     &Config{},
			expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			config := tt.initial

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
