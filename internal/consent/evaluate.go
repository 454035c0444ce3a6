package consent

import (
	"github.com/dkrasnov/consentvault/internal/identity"
	"github.com/dkrasnov/consentvault/internal/ledger"
)

// DenyReason classifies why access was denied, ranked for user-facing
// clarity. Higher values take priority when multiple candidates fail for
// different reasons.
type DenyReason int

const (
	// DenyNoConsentFound: no consent references the record at all.
	DenyNoConsentFound DenyReason = iota
	// DenyExpired: a matching consent exists but its expiry has passed.
	DenyExpired
	// DenyRevoked: a matching consent exists but was revoked.
	DenyRevoked
	// DenyDifferentRequester: consents exist for the record, but none names
	// this requester.
	DenyDifferentRequester
)

func (r DenyReason) String() string {
	switch r {
	case DenyExpired:
		return "expired"
	case DenyRevoked:
		return "revoked"
	case DenyDifferentRequester:
		return "different requester"
	default:
		return "no consent found"
	}
}

// Decision is the outcome of an access evaluation. When Allowed, ConsentID
// names the consent that satisfied the check; otherwise Reason says why not.
type Decision struct {
	Allowed   bool
	ConsentID int64
	Reason    DenyReason
}

// Evaluate decides whether requester may access recordID at time now
// (unix seconds), given the candidate consents. Pure function, no I/O: both
// the key-recovery gate and any status display call this, so the two can
// never diverge.
//
// A consent is currently valid iff it references the record, names the
// requester (case-insensitive), is active, and expires at or after now.
// Any one valid consent suffices; access is not cumulative or ranked.
func Evaluate(now int64, requester string, recordID int64, consents []ledger.Consent) Decision {
	best := DenyNoConsentFound

	for _, c := range consents {
		if c.RecordID != recordID {
			continue
		}
		if !identity.Equal(c.Requester, requester) {
			if best < DenyDifferentRequester {
				best = DenyDifferentRequester
			}
			continue
		}
		if !c.Active {
			if best < DenyRevoked {
				best = DenyRevoked
			}
			continue
		}
		if c.ExpiresAt < now {
			if best < DenyExpired {
				best = DenyExpired
			}
			continue
		}
		return Decision{Allowed: true, ConsentID: c.ID}
	}

	return Decision{Allowed: false, Reason: best}
}
