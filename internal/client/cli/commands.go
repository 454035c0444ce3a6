package cli

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dkrasnov/consentvault/internal/cryptox"
	"github.com/dkrasnov/consentvault/internal/keyring"
	"github.com/dkrasnov/consentvault/internal/keyshare"
)

// contentKey derives (or fetches from the session cache) the caller's own
// content key.
func (app *App) contentKey(ctx context.Context) (*cryptox.ContentKey, error) {
	key, err := keyring.DeriveOrGet(ctx, app.caller, app.signer, app.cache)
	if err != nil {
		return nil, err
	}
	app.cache.Put(app.caller, key)
	return key, nil
}

func (app *App) cmdEncrypt(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("encrypt", flag.ContinueOnError)
	in := fs.String("in", "", "plaintext file")
	out := fs.String("out", "", "output file for the encrypted payload")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return fmt.Errorf("encrypt: -in and -out are required")
	}

	plaintext, err := os.ReadFile(*in)
	if err != nil {
		return err
	}

	key, err := app.contentKey(ctx)
	if err != nil {
		return err
	}

	sealed, err := cryptox.Seal(plaintext, key)
	if err != nil {
		return err
	}

	if err := os.WriteFile(*out, sealed, 0o600); err != nil {
		return err
	}

	fmt.Fprintf(app.out, "encrypted %s -> %s (%d bytes)\n", *in, *out, len(sealed))
	return nil
}

func (app *App) cmdDecrypt(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("decrypt", flag.ContinueOnError)
	in := fs.String("in", "", "encrypted file")
	out := fs.String("out", "", "output file for the plaintext")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return fmt.Errorf("decrypt: -in and -out are required")
	}

	wire, err := os.ReadFile(*in)
	if err != nil {
		return err
	}

	key, err := app.contentKey(ctx)
	if err != nil {
		return err
	}

	plaintext, err := cryptox.Decrypt(wire, key)
	if err != nil {
		return err
	}

	if err := os.WriteFile(*out, plaintext, 0o600); err != nil {
		return err
	}

	fmt.Fprintf(app.out, "decrypted %s -> %s (%d bytes)\n", *in, *out, len(plaintext))
	return nil
}

func (app *App) cmdCreateRecord(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create-record", flag.ContinueOnError)
	title := fs.String("title", "", "record title")
	description := fs.String("desc", "", "record description")
	in := fs.String("in", "", "plaintext file")
	out := fs.String("out", "", "output file for the encrypted payload")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *title == "" || *in == "" || *out == "" {
		return fmt.Errorf("create-record: -title, -in and -out are required")
	}

	plaintext, err := os.ReadFile(*in)
	if err != nil {
		return err
	}

	key, err := app.contentKey(ctx)
	if err != nil {
		return err
	}

	sealed, err := cryptox.Seal(plaintext, key)
	if err != nil {
		return err
	}

	if err := os.WriteFile(*out, sealed, 0o600); err != nil {
		return err
	}

	sum := sha256.Sum256(sealed)
	id, err := app.service.CreateRecord(ctx, app.caller, *title, *description, hex.EncodeToString(sum[:]))
	if err != nil {
		return err
	}

	fmt.Fprintf(app.out, "record %d registered (%s)\n", id, *title)
	return nil
}

func (app *App) cmdGrant(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("grant", flag.ContinueOnError)
	recordID := fs.Int64("record", 0, "record id")
	requester := fs.String("requester", "", "requester identity")
	purpose := fs.String("purpose", "", "purpose of access")
	ttl := fs.Duration("ttl", 24*time.Hour, "how long the consent stays valid")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *recordID == 0 || *requester == "" {
		return fmt.Errorf("grant: -record and -requester are required")
	}

	expiresAt := time.Now().Add(*ttl).Unix()
	id, err := app.service.Grant(ctx, app.caller, *requester, *recordID, *purpose, expiresAt)
	if err != nil {
		return err
	}

	fmt.Fprintf(app.out, "consent %d granted to %s until %s\n",
		id, *requester, time.Unix(expiresAt, 0).UTC().Format(time.RFC3339))
	return nil
}

func (app *App) cmdRevoke(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("revoke", flag.ContinueOnError)
	consentID := fs.Int64("consent", 0, "consent id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *consentID == 0 {
		return fmt.Errorf("revoke: -consent is required")
	}

	if err := app.service.Revoke(ctx, app.caller, *consentID); err != nil {
		return err
	}

	fmt.Fprintf(app.out, "consent %d revoked\n", *consentID)
	return nil
}

func (app *App) cmdStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	recordID := fs.Int64("record", 0, "record id")
	requester := fs.String("requester", "", "requester identity")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *recordID == 0 || *requester == "" {
		return fmt.Errorf("status: -record and -requester are required")
	}

	decision, err := app.service.CheckAccess(ctx, app.caller, *requester, *recordID)
	if err != nil {
		return err
	}

	if decision.Allowed {
		fmt.Fprintf(app.out, "allowed (consent %d)\n", decision.ConsentID)
	} else {
		fmt.Fprintf(app.out, "denied: %s\n", decision.Reason)
	}
	return nil
}

func (app *App) cmdListRecords(ctx context.Context) error {
	records, err := app.service.ListRecordsByOwner(ctx, app.caller)
	if err != nil {
		return err
	}

	for _, r := range records {
		fmt.Fprintf(app.out, "%d\t%s\t%s\n", r.ID, r.Title, r.Description)
	}
	fmt.Fprintf(app.out, "%d record(s)\n", len(records))
	return nil
}

func (app *App) cmdListConsents(ctx context.Context) error {
	consents, err := app.service.ListConsentsByOwner(ctx, app.caller)
	if err != nil {
		return err
	}

	for _, c := range consents {
		state := "active"
		if !c.Active {
			state = "revoked"
		} else if c.ExpiresAt < time.Now().Unix() {
			state = "expired"
		}
		fmt.Fprintf(app.out, "%d\trecord %d\t%s\t%s\t%s\n",
			c.ID, c.RecordID, c.Requester, state, time.Unix(c.ExpiresAt, 0).UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(app.out, "%d consent(s)\n", len(consents))
	return nil
}

func (app *App) cmdShareKey(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("share-key", flag.ContinueOnError)
	recordID := fs.Int64("record", 0, "record id")
	requester := fs.String("requester", "", "requester identity")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *recordID == 0 || *requester == "" {
		return fmt.Errorf("share-key: -record and -requester are required")
	}

	key, err := app.contentKey(ctx)
	if err != nil {
		return err
	}

	protocol, err := keyshare.New(app.caller, app.ledger, app.blobs, app.logger)
	if err != nil {
		return err
	}

	if err := protocol.Share(ctx, key, *recordID, *requester); err != nil {
		return err
	}

	fmt.Fprintf(app.out, "key for record %d shared with %s\n", *recordID, *requester)
	return nil
}

func (app *App) cmdRecoverKey(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("recover-key", flag.ContinueOnError)
	recordID := fs.Int64("record", 0, "record id")
	in := fs.String("in", "", "encrypted file to decrypt with the recovered key")
	out := fs.String("out", "", "output file for the plaintext")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *recordID == 0 {
		return fmt.Errorf("recover-key: -record is required")
	}

	protocol, err := keyshare.New(app.caller, app.ledger, app.blobs, app.logger)
	if err != nil {
		return err
	}

	key, err := protocol.Recover(ctx, app.caller, *recordID)
	if err != nil {
		return err
	}
	defer key.Wipe()

	fmt.Fprintf(app.out, "key for record %d recovered\n", *recordID)

	if *in == "" {
		return nil
	}
	if *out == "" {
		return fmt.Errorf("recover-key: -out is required when -in is set")
	}

	wire, err := os.ReadFile(*in)
	if err != nil {
		return err
	}

	plaintext, err := cryptox.Decrypt(wire, key)
	if err != nil {
		return err
	}

	if err := os.WriteFile(*out, plaintext, 0o600); err != nil {
		return err
	}

	fmt.Fprintf(app.out, "decrypted %s -> %s (%d bytes)\n", *in, *out, len(plaintext))
	return nil
}
