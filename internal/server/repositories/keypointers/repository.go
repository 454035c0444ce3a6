package keypointers

import "context"

// Repository is wrapped-key-pointer persistence: one slot per
// (record, requester) pair, overwritten on each new share.
type Repository interface {
	Upsert(ctx context.Context, recordID int64, requester, pointer string, updatedAt int64) error
	Get(ctx context.Context, recordID int64, requester string) (string, error)
}
