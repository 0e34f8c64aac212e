// Package config handles configuration for the wallet server, including
// defaults, a JSON overlay, environment variables (optionally from a .env
// file) and command-line flags.
package config

import (
	"log/slog"
	"time"
)

// Config holds runtime settings for the wallet server.
//
// Fields:
//   - EndpointAddrHTTP / EndpointAddrGRPC: bind addresses of the web surface and the health endpoint.
//   - PublicBaseURL: externally reachable base URL, used to build the gateway callback URL.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects in-memory storage.
//   - SecretKey: HMAC secret for signing session tokens (HS256).
//   - GatewayBaseURL / GatewaySecretKey / GatewayTimeout: payment gateway access.
//   - S3*: receipt archive settings. An empty bucket disables the archive.
//   - LogBackend: "slog" or "zap".
type Config struct {
	EndpointAddrHTTP        string
	EndpointAddrGRPC        string
	PublicBaseURL           string
	DatabaseDSN             string
	SecretKey               string
	SessionValidityDuration time.Duration
	GatewayBaseURL          string
	GatewaySecretKey        string
	GatewayTimeout          time.Duration
	S3RootUser              string
	S3RootPassword          string
	S3Bucket                string
	S3Region                string
	S3BaseEndpoint          string
	LogBackend              string
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secret key default is insecure and must be overridden in production.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":5000"
	c.EndpointAddrGRPC = ":50051"
	c.PublicBaseURL = "http://localhost:5000"
	c.SecretKey = "supersecretkey"
	c.SessionValidityDuration = 24 * time.Hour
	c.GatewayBaseURL = "https://api.paystack.co"
	c.GatewayTimeout = 10 * time.Second
	c.S3Region = "us-east-1"
	c.LogBackend = "slog"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "******"
}

// Redacted returns the configuration with every secret masked.
func (c *Config) Redacted() map[string]any {
	return map[string]any{
		"endpoint_addr_http":        c.EndpointAddrHTTP,
		"endpoint_addr_grpc":        c.EndpointAddrGRPC,
		"public_base_url":           c.PublicBaseURL,
		"database_dsn":              mask(c.DatabaseDSN),
		"secret_key":                mask(c.SecretKey),
		"session_validity_duration": c.SessionValidityDuration.String(),
		"gateway_base_url":          c.GatewayBaseURL,
		"gateway_secret_key":        mask(c.GatewaySecretKey),
		"gateway_timeout":           c.GatewayTimeout.String(),
		"s3_root_user":              c.S3RootUser,
		"s3_root_password":          mask(c.S3RootPassword),
		"s3_bucket":                 c.S3Bucket,
		"s3_region":                 c.S3Region,
		"s3_base_endpoint":          c.S3BaseEndpoint,
		"log_backend":               c.LogBackend,
	}
}

// LogValue implements slog.LogValuer so a Config can be logged safely.
func (c *Config) LogValue() slog.Value {
	r := c.Redacted()
	return slog.GroupValue(
		slog.String("endpoint_addr_http", c.EndpointAddrHTTP),
		slog.String("endpoint_addr_grpc", c.EndpointAddrGRPC),
		slog.String("public_base_url", c.PublicBaseURL),
		slog.Any("database_dsn", r["database_dsn"]),
		slog.Any("secret_key", r["secret_key"]),
		slog.Duration("session_validity_duration", c.SessionValidityDuration),
		slog.String("gateway_base_url", c.GatewayBaseURL),
		slog.Any("gateway_secret_key", r["gateway_secret_key"]),
		slog.Duration("gateway_timeout", c.GatewayTimeout),
		slog.String("s3_bucket", c.S3Bucket),
		slog.Any("s3_root_password", r["s3_root_password"]),
		slog.String("log_backend", c.LogBackend),
	)
}
