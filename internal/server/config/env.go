package config

import (
	"os"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from environment variables. A .env file in
// the working directory is loaded first if present; real environment
// variables win over the file.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	setIfPresent := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	setIfPresent(&config.EndpointAddrHTTP, "ADDRESS")
	setIfPresent(&config.DatabaseDSN, "DATABASE_DSN")
	setIfPresent(&config.SecretKey, "SECRET_KEY")
	setIfPresent(&config.S3RootUser, "S3_ROOT_USER")
	setIfPresent(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	setIfPresent(&config.S3Bucket, "S3_BUCKET")
	setIfPresent(&config.S3Region, "S3_REGION")
	setIfPresent(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
}
