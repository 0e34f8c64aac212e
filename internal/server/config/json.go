package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gopherwallet/internal/flagx"
	"github.com/dmitrijs2005/gopherwallet/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Duration fields
// use timex.Duration so both "10s" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrHTTP        string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC        string         `json:"endpoint_addr_grpc"`
	PublicBaseURL           string         `json:"public_base_url"`
	DatabaseDSN             string         `json:"database_dsn"`
	SecretKey               string         `json:"secret_key"`
	SessionValidityDuration timex.Duration `json:"session_validity_duration"`
	GatewayBaseURL          string         `json:"gateway_base_url"`
	GatewaySecretKey        string         `json:"gateway_secret_key"`
	GatewayTimeout          timex.Duration `json:"gateway_timeout"`
	S3RootUser              string         `json:"s3_root_user"`
	S3RootPassword          string         `json:"s3_root_password"`
	S3Bucket                string         `json:"s3_bucket"`
	S3Region                string         `json:"s3_region"`
	S3BaseEndpoint          string         `json:"s3_base_endpoint"`
	LogBackend              string         `json:"log_backend"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseJson overlays values from the file named by -c/-config onto config.
// Keys that are missing or empty in the file keep their current value.
// An unreadable file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.PublicBaseURL, c.PublicBaseURL)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.GatewayBaseURL, c.GatewayBaseURL)
	setString(&config.GatewaySecretKey, c.GatewaySecretKey)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogBackend, c.LogBackend)

	if c.SessionValidityDuration.Duration > 0 {
		config.SessionValidityDuration = c.SessionValidityDuration.Duration
	}
	if c.GatewayTimeout.Duration > 0 {
		config.GatewayTimeout = c.GatewayTimeout.Duration
	}
}
