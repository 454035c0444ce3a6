package config

import (
	"encoding/json"
	"os"

	"github.com/dkrasnov/consentvault/internal/flagx"
)

// JsonConfig mirrors Config for JSON unmarshalling.
type JsonConfig struct {
	ServerEndpointAddr string `json:"server_endpoint_addr"`
	Address            string `json:"address"`
	SecretKey          string `json:"secret_key"`
	SignerSecret       string `json:"signer_secret"`
	S3RootUser         string `json:"s3_root_user"`
	S3RootPassword     string `json:"s3_root_password"`
	S3Bucket           string `json:"s3_bucket"`
	S3Region           string `json:"s3_region"`
	S3BaseEndpoint     string `json:"s3_base_endpoint"`
}

// parseJson overlays Config with values from the JSON file named by the -c
// or -config flag. Empty fields in the file leave the current value alone.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.ServerEndpointAddr != "" {
		config.ServerEndpointAddr = c.ServerEndpointAddr
	}
	if c.Address != "" {
		config.Address = c.Address
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.SignerSecret != "" {
		config.SignerSecret = c.SignerSecret
	}
	if c.S3RootUser != "" {
		config.S3RootUser = c.S3RootUser
	}
	if c.S3RootPassword != "" {
		config.S3RootPassword = c.S3RootPassword
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}
}
