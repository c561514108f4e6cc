package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type staticDataRecord struct {
	bun.BaseModel `bun:"table:leadtable_static_data,alias:lsd"`

	ID         string    `bun:"id,pk"`
	WorkflowID string    `bun:"workflow_id,notnull"`
	Key        string    `bun:"data_key,notnull"`
	Value      []byte    `bun:"value,notnull"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

const (
	claimStatusProcessing = "processing"
	claimStatusRetryReady = "retry_ready"
	claimStatusComplete   = "complete"
)

type inboundClaimRecord struct {
	bun.BaseModel `bun:"table:leadtable_inbound_claims,alias:lic"`

	ID             string     `bun:"id,pk"`
	ClaimKey       string     `bun:"claim_key,notnull"`
	ClaimID        string     `bun:"claim_id,notnull"`
	Status         string     `bun:"status,notnull"`
	Attempts       int        `bun:"attempts,notnull"`
	LeaseSeconds   int64      `bun:"lease_seconds,notnull"`
	LeaseExpiresAt *time.Time `bun:"lease_expires_at,nullzero"`
	RetryAt        *time.Time `bun:"retry_at,nullzero"`
	LastError      string     `bun:"last_error,notnull"`
	CreatedAt      time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// blocks reports whether the key is still held at now.
func (r *inboundClaimRecord) blocks(now time.Time) bool {
	switch r.Status {
	case claimStatusProcessing, claimStatusComplete:
		return r.LeaseExpiresAt != nil && now.Before(r.LeaseExpiresAt.UTC())
	case claimStatusRetryReady:
		return r.RetryAt != nil && now.Before(r.RetryAt.UTC())
	}
	return false
}

func (r *inboundClaimRecord) lease() time.Duration {
	return time.Duration(r.LeaseSeconds) * time.Second
}
