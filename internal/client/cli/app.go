// Package cli implements the consentvault command-line client. Each
// subcommand maps to one protocol step: registering encrypted records,
// granting and revoking consent, sharing wrapped keys, and recovering them.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dkrasnov/consentvault/internal/blob"
	"github.com/dkrasnov/consentvault/internal/client/config"
	"github.com/dkrasnov/consentvault/internal/consent"
	"github.com/dkrasnov/consentvault/internal/identity"
	"github.com/dkrasnov/consentvault/internal/keyring"
	"github.com/dkrasnov/consentvault/internal/ledger"
	"github.com/dkrasnov/consentvault/internal/ledger/httpclient"
	"github.com/dkrasnov/consentvault/internal/logging"
	"github.com/dkrasnov/consentvault/internal/server/auth"
	"github.com/dkrasnov/consentvault/internal/signer"
)

// App holds the wired dependencies for one CLI invocation, all bound to a
// single caller identity.
type App struct {
	caller  string
	service *consent.Service
	ledger  ledger.Ledger
	blobs   blob.Store
	signer  signer.Signer
	cache   keyring.Cache
	logger  logging.Logger
	out     io.Writer
}

// NewApp wires the production dependencies: HTTP ledger client, S3 blob
// store, and a local signing backend for the configured identity.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	caller, err := identity.Normalize(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("identity (-id): %w", err)
	}

	token, err := auth.GenerateToken(caller, []byte(cfg.SecretKey), time.Hour)
	if err != nil {
		return nil, fmt.Errorf("token: %w", err)
	}

	blobs, err := blob.NewS3Store(ctx, blob.S3Config{
		RootUser:     cfg.S3RootUser,
		RootPassword: cfg.S3RootPassword,
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("blob store: %w", err)
	}

	l := httpclient.New(cfg.ServerEndpointAddr, token)
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	return &App{
		caller:  caller,
		service: consent.NewService(l),
		ledger:  l,
		blobs:   blobs,
		signer:  signer.NewLocalSigner(map[string][]byte{caller: []byte(cfg.SignerSecret)}),
		cache:   keyring.NewMemoryCache(),
		logger:  logger,
		out:     os.Stdout,
	}, nil
}

const usageText = `usage: consentctl [flags] <command> [command flags]

commands:
  create-record   encrypt a file and register it on the ledger
  encrypt         encrypt a file with the caller's content key
  decrypt         decrypt a file with the caller's content key
  grant           grant a requester time-bounded access to a record
  revoke          revoke a consent
  status          show the current access decision for a requester
  list-records    list records owned by the caller
  list-consents   list consents granted by the caller
  share-key       wrap the content key for a requester and publish it
  recover-key     fetch the wrapped key as requester and decrypt a file
`

// Run dispatches the subcommand named by the first non-flag argument.
func (app *App) Run(ctx context.Context, args []string) error {
	cmd, rest := splitCommand(args)

	switch cmd {
	case "create-record":
		return app.cmdCreateRecord(ctx, rest)
	case "encrypt":
		return app.cmdEncrypt(ctx, rest)
	case "decrypt":
		return app.cmdDecrypt(ctx, rest)
	case "grant":
		return app.cmdGrant(ctx, rest)
	case "revoke":
		return app.cmdRevoke(ctx, rest)
	case "status":
		return app.cmdStatus(ctx, rest)
	case "list-records":
		return app.cmdListRecords(ctx)
	case "list-consents":
		return app.cmdListConsents(ctx)
	case "share-key":
		return app.cmdShareKey(ctx, rest)
	case "recover-key":
		return app.cmdRecoverKey(ctx, rest)
	case "":
		fmt.Fprint(app.out, usageText)
		return nil
	default:
		fmt.Fprint(app.out, usageText)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// splitCommand finds the first non-flag argument and returns it together
// with everything after it. Global flags before the command are consumed by
// config parsing and skipped here.
func splitCommand(args []string) (string, []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if len(arg) > 0 && arg[0] == '-' {
			// "-flag=value" occupies one slot, "-flag value" two
			if !strings.Contains(arg, "=") && i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' {
				i++
			}
			continue
		}
		return arg, args[i+1:]
	}
	return "", nil
}
