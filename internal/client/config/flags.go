package config

import (
	"flag"
	"os"

	"github.com/dkrasnov/consentvault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string    base URL of the ledger server
//	-id string   wallet identity to act as
//	-s string    bearer token HMAC secret
//	-k string    local signer secret
//	-u string    S3 root user
//	-p string    S3 root password
//	-b string    S3 bucket name
//	-g string    S3 region
//	-e string    S3 base endpoint
//
// os.Args is filtered to the flags listed here first, so subcommand names
// and subcommand flags pass through untouched.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-id", "-s", "-k", "-u", "-p", "-b", "-g", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "ledger server base URL")
	fs.StringVar(&cfg.Address, "id", cfg.Address, "wallet identity")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "bearer token secret")
	fs.StringVar(&cfg.SignerSecret, "k", cfg.SignerSecret, "local signer secret")
	fs.StringVar(&cfg.S3RootUser, "u", cfg.S3RootUser, "S3 root user")
	fs.StringVar(&cfg.S3RootPassword, "p", cfg.S3RootPassword, "S3 root password")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket")
	fs.StringVar(&cfg.S3Region, "g", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "e", cfg.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
