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
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"cmd",
			"-a", "127.0.0.1:8080", "-g", ":6000", "-u", "https://wallet.example", "-d", "db",
			"-w", "http://gw", "-t", "3s", "-o", "1h", "-b", "bucket", "-r", "us-west-1", "-e", "http://endpoint", "-l", "zap",
		}, expected: &Config{
			EndpointAddrHTTP:        "127.0.0.1:8080",
			EndpointAddrGRPC:        ":6000",
			PublicBaseURL:           "https://wallet.example",
			DatabaseDSN:             "db",
			GatewayBaseURL:          "http://gw",
			GatewayTimeout:          3 * time.Second,
			SessionValidityDuration: time.Hour,
			S3Bucket:                "bucket",
			S3Region:                "us-west-1",
			S3BaseEndpoint:          "http://endpoint",
			LogBackend:              "zap",
		}},
		{name: "secret flags are ignored", args: []string{"cmd", "-s", "secret", "-p", "password"},
			expected: &Config{}},
		{name: "bad duration", args: []string{"cmd", "-t", "soon"}, expectPanic: true},
	}

	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
