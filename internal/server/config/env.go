package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/gopherwallet/internal/flagx"
)

// parseEnv overlays values from the process environment. When -n/-envfile
// names a dotenv file it is loaded first; variables already present in the
// environment take precedence over the file.
//
// Recognised variables: HTTP_ADDRESS, GRPC_ADDRESS, PUBLIC_BASE_URL,
// DATABASE_DSN, SECRET_KEY, SESSION_VALIDITY, PAYSTACK_BASE_URL,
// PAYSTACK_SECRET_KEY, PAYSTACK_TIMEOUT, S3_ROOT_USER, S3_ROOT_PASSWORD,
// S3_BUCKET, S3_REGION, S3_BASE_ENDPOINT, LOG_BACKEND.
func parseEnv(config *Config) {
	if envFile := flagx.EnvFileFlags(); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			panic(err)
		}
	}

	envString(&config.EndpointAddrHTTP, "HTTP_ADDRESS")
	envString(&config.EndpointAddrGRPC, "GRPC_ADDRESS")
	envString(&config.PublicBaseURL, "PUBLIC_BASE_URL")
	envString(&config.DatabaseDSN, "DATABASE_DSN")
	envString(&config.SecretKey, "SECRET_KEY")
	envDuration(&config.SessionValidityDuration, "SESSION_VALIDITY")
	envString(&config.GatewayBaseURL, "PAYSTACK_BASE_URL")
	envString(&config.GatewaySecretKey, "PAYSTACK_SECRET_KEY")
	envDuration(&config.GatewayTimeout, "PAYSTACK_TIMEOUT")
	envString(&config.S3RootUser, "S3_ROOT_USER")
	envString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	envString(&config.S3Bucket, "S3_BUCKET")
	envString(&config.S3Region, "S3_REGION")
	envString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	envString(&config.LogBackend, "LOG_BACKEND")
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}
