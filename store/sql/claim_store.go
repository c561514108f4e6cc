package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-leadtable/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const defaultClaimLease = 10 * time.Minute

type ClaimStore struct {
	db   *bun.DB
	repo repository.Repository[*inboundClaimRecord]
	now  func() time.Time
}

func NewClaimStore(db *bun.DB) (*ClaimStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*inboundClaimRecord](db, inboundClaimHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid inbound claim repository wiring: %w", err)
		}
	}
	return &ClaimStore{db: db, repo: repo, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *ClaimStore) Claim(ctx context.Context, key string, lease time.Duration) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, fmt.Errorf("sqlstore: claim store is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false, core.InvalidConfigurationError("sqlstore: claim key is required", nil)
	}
	if lease < time.Second {
		lease = defaultClaimLease
	}
	now := s.now()
	expires := now.Add(lease)
	claimID := uuid.NewString()

	accepted := false
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := findClaimTx(ctx, tx, "claim_key", key)
		if err != nil {
			return err
		}
		if record == nil {
			record = &inboundClaimRecord{
				ID:             uuid.NewString(),
				ClaimKey:       key,
				ClaimID:        claimID,
				Status:         claimStatusProcessing,
				Attempts:       1,
				LeaseSeconds:   int64(lease / time.Second),
				LeaseExpiresAt: &expires,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if _, insertErr := s.repo.CreateTx(ctx, tx, record); insertErr != nil {
				if isUniqueViolation(insertErr) {
					return nil
				}
				return insertErr
			}
			accepted = true
			return nil
		}
		if record.blocks(now) {
			return nil
		}
		_, err = tx.NewUpdate().
			Model((*inboundClaimRecord)(nil)).
			Set("claim_id = ?", claimID).
			Set("status = ?", claimStatusProcessing).
			Set("attempts = ?", record.Attempts+1).
			Set("lease_seconds = ?", int64(lease/time.Second)).
			Set("lease_expires_at = ?", expires).
			Set("retry_at = NULL").
			Set("updated_at = ?", now).
			Where("id = ?", record.ID).
			Where("claim_id = ?", record.ClaimID).
			Exec(ctx)
		if err != nil {
			return err
		}
		accepted = true
		return nil
	})
	if err != nil {
		return "", false, err
	}
	if !accepted {
		return "", false, nil
	}
	return claimID, true, nil
}

func (s *ClaimStore) Complete(ctx context.Context, claimID string) error {
	return s.settle(ctx, claimID, func(q *bun.UpdateQuery, record *inboundClaimRecord, now time.Time) *bun.UpdateQuery {
		lease := record.lease()
		if lease <= 0 {
			lease = defaultClaimLease
		}
		return q.
			Set("status = ?", claimStatusComplete).
			Set("lease_expires_at = ?", now.Add(lease)).
			Set("retry_at = NULL")
	})
}

func (s *ClaimStore) Fail(ctx context.Context, claimID string, cause error, retryAt time.Time) error {
	message := ""
	if cause != nil {
		message = core.ErrorMessage(cause)
	}
	return s.settle(ctx, claimID, func(q *bun.UpdateQuery, _ *inboundClaimRecord, now time.Time) *bun.UpdateQuery {
		if retryAt.IsZero() {
			retryAt = now
		}
		return q.
			Set("status = ?", claimStatusRetryReady).
			Set("retry_at = ?", retryAt.UTC()).
			Set("lease_expires_at = NULL").
			Set("last_error = ?", message)
	})
}

func (s *ClaimStore) settle(
	ctx context.Context,
	claimID string,
	apply func(*bun.UpdateQuery, *inboundClaimRecord, time.Time) *bun.UpdateQuery,
) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: claim store is not configured")
	}
	claimID = strings.TrimSpace(claimID)
	if claimID == "" {
		return core.InvalidConfigurationError("sqlstore: claim id is required", nil)
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := findClaimTx(ctx, tx, "claim_id", claimID)
		if err != nil {
			return err
		}
		if record == nil || record.Status != claimStatusProcessing {
			return nil
		}
		now := s.now()
		query := tx.NewUpdate().Model((*inboundClaimRecord)(nil))
		query = apply(query, record, now).
			Set("updated_at = ?", now).
			Where("id = ?", record.ID).
			Where("claim_id = ?", claimID)
		_, err = query.Exec(ctx)
		return err
	})
}

func findClaimTx(ctx context.Context, tx bun.Tx, column string, value string) (*inboundClaimRecord, error) {
	record := &inboundClaimRecord{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.? = ?", bun.Ident(column), value).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

var _ core.IdempotencyClaimStore = (*ClaimStore)(nil)
