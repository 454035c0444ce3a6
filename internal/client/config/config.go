// Package config handles configuration for the CLI: defaults, an optional
// JSON file, and command-line flags.
package config

// Config holds runtime settings for the consentvault CLI.
//
// Fields:
//   - ServerEndpointAddr: base URL of the ledger HTTP API.
//   - Address: the wallet identity the CLI acts as.
//   - SecretKey: HMAC secret shared with the ledger server, used to mint the
//     bearer token for Address.
//   - SignerSecret: per-identity secret for the local signing backend.
//   - S3RootUser / S3RootPassword / S3Bucket / S3Region / S3BaseEndpoint:
//     object storage holding wrapped key blobs.
type Config struct {
	ServerEndpointAddr string
	Address            string
	SecretKey          string
	SignerSecret       string
	S3RootUser         string
	S3RootPassword     string
	S3Bucket           string
	S3Region           string
	S3BaseEndpoint     string
}

// LoadDefaults populates c with development defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.SecretKey = "secretKey"
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "keyblobs"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags. Later sources win.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
