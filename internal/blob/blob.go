// Package blob defines the content-addressed blob storage consumed for
// encrypted payloads and encoded keys, plus the S3 and in-memory
// implementations.
package blob

import "context"

// Store is opaque byte storage. Put returns a storage address; Get resolves
// it. Addresses are opaque strings, and the store makes no size or MIME
// assumptions.
type Store interface {
	Put(ctx context.Context, data []byte) (string, error)
	Get(ctx context.Context, address string) ([]byte, error)
}
