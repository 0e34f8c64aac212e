package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/gopherwallet/internal/flagx"
)

// parseFlags populates the non-secret Config fields from command-line flags.
// Secrets are accepted only from the JSON file or the environment.
//
// Supported flags:
//
//	-a string     HTTP bind address (e.g., ":5000")
//	-g string     gRPC health bind address (e.g., ":50051")
//	-u string     public base URL used for gateway callbacks
//	-d string     PostgreSQL DSN (empty selects in-memory storage)
//	-w string     payment gateway base URL
//	-t duration   payment gateway timeout (e.g., "10s")
//	-o duration   session validity (e.g., "24h")
//	-b string     S3 bucket for receipts
//	-r string     S3 region
//	-e string     S3 base endpoint
//	-l string     log backend: slog | zap
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-u", "-d", "-w", "-t", "-o", "-b", "-r", "-e", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to serve HTTP")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port to serve gRPC health")
	fs.StringVar(&config.PublicBaseURL, "u", config.PublicBaseURL, "public base URL")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.GatewayBaseURL, "w", config.GatewayBaseURL, "payment gateway base URL")
	fs.DurationVar(&config.GatewayTimeout, "t", config.GatewayTimeout, "payment gateway timeout")
	fs.DurationVar(&config.SessionValidityDuration, "o", config.SessionValidityDuration, "session validity")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 receipts bucket")
	fs.StringVar(&config.S3Region, "r", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogBackend, "l", config.LogBackend, "log backend (slog|zap)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
