package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/gowebpki/jcs"
)

// Entry is one hash-chained record in the append-only audit ledger.
//
// Invariants:
// - Entries are never updated or deleted.
// - entry_hash is unique across the ledger.
// - previous_hash references the entry_hash of the immediately preceding
//   entry in sequence order; the first entry carries the empty sentinel.
// - sequence_id order is canonical for verification; recorded_at is advisory.
//
// Storage recommendation (Postgres):
// - Table audit_entries with an INSERT-only policy.
// - UNIQUE constraints on entry_hash and previous_hash.
// - Optional: trigger to prevent UPDATE/DELETE.

type Entry struct {
	SequenceID int64 `json:"sequence_id" db:"sequence_id"`

	// ActorUserID is the authenticated user causing the entry, empty for anonymous actions.
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorName   string `json:"actor_name" db:"actor_name"`
	// ActorRole is captured by value at append time. Later role changes never
	// alter historical entries.
	ActorRole string `json:"actor_role" db:"actor_role"`

	// Action is a short symbolic code, e.g. "LOGIN_SUCCESS".
	Action string `json:"action" db:"action"`
	// Details is an opaque serialized payload; empty when absent.
	Details string `json:"details,omitempty" db:"details"`

	// SourceAddress should capture the original client IP when available.
	// Prefer X-Forwarded-For processing at the edge; store the resolved client IP here.
	SourceAddress string `json:"source_address,omitempty" db:"source_address"`

	RecordedAt time.Time `json:"recorded_at" db:"recorded_at"`

	// PreviousHash is empty only for the very first entry.
	PreviousHash string `json:"previous_hash,omitempty" db:"previous_hash"`
	// EntryHash is the lowercase hex SHA-256 digest over the canonical
	// serialization of this entry's fields plus PreviousHash.
	EntryHash string `json:"entry_hash" db:"entry_hash"`
}

// Actor describes who performed an audited action.
// The zero value is not valid; use Anonymous() for unauthenticated callers.
type Actor struct {
	UserID string
	Name   string
	Role   string
}

// Sentinels used when no authenticated actor is present.
const (
	AnonymousName = "anonymous"
	GuestRole     = "guest"
)

// Anonymous returns the actor descriptor for unauthenticated callers.
func Anonymous() Actor {
	return Actor{Name: AnonymousName, Role: GuestRole}
}

// Action codes. Keep these stable; the admin audit view filters on them.
const (
	ActionLoginSuccess        = "LOGIN_SUCCESS"
	ActionLoginFailed         = "LOGIN_FAILED"
	ActionLoginFailedInactive = "LOGIN_FAILED_INACTIVE"
	ActionLogout              = "LOGOUT"

	ActionComplaintSubmitted    = "COMPLAINT_SUBMITTED"
	ActionComplaintTracked      = "COMPLAINT_TRACKED"
	ActionStatusUpdate          = "STATUS_UPDATE"
	ActionStatusUpdateByAdmin   = "STATUS_UPDATE_BY_ADMIN"
	ActionComplaintAssigned     = "COMPLAINT_ASSIGNED"
	ActionComplaintAdminAssign  = "COMPLAINT_ASSIGNED_BY_ADMIN"
	ActionNotesAdded            = "NOTES_ADDED"
	ActionOfficerCreated        = "OFFICER_CREATED"
	ActionOfficerToggled        = "OFFICER_TOGGLED"
	ActionOfficerPasswordReset  = "OFFICER_PASSWORD_RESET"
	ActionDepartmentCreated     = "DEPARTMENT_CREATED"
	ActionServiceCreated        = "SERVICE_CREATED"
)

// hashTimeLayout is the fixed timestamp format fed into the digest.
// Microsecond precision matches what timestamptz round-trips, so a stored
// entry always recomputes to the same digest.
const hashTimeLayout = "2006-01-02T15:04:05.000000Z"

// hashPayload is the canonical digest input. EntryHash and SequenceID are
// deliberately excluded: the hash must be recomputable from the persisted
// fields alone, and sequence assignment happens at insert time.
type hashPayload struct {
	Action       string `json:"action"`
	ActorName    string `json:"actor_name"`
	ActorRole    string `json:"actor_role"`
	Details      string `json:"details"`
	PreviousHash string `json:"previous_hash"`
	RecordedAt   string `json:"recorded_at"`
}

// ComputeHash returns the deterministic lowercase hex SHA-256 digest for e.
// Same logical field values always produce the same digest: the payload is
// serialized as RFC 8785 canonical JSON (sorted keys, fixed separators) with
// a fixed UTC timestamp format.
func ComputeHash(e Entry) (string, error) {
	raw, err := json.Marshal(hashPayload{
		Action:       e.Action,
		ActorName:    e.ActorName,
		ActorRole:    e.ActorRole,
		Details:      e.Details,
		PreviousHash: e.PreviousHash,
		RecordedAt:   e.RecordedAt.UTC().Format(hashTimeLayout),
	})
	if err != nil {
		return "", err
	}
	canon, err := jcs.Transform(raw)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}

// EncodeDetails serializes a structured details payload for storage.
// Strings pass through unchanged; everything else is JSON-encoded.
func EncodeDetails(v any) string {
	switch d := v.(type) {
	case nil:
		return ""
	case string:
		return d
	default:
		b, err := json.Marshal(d)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
