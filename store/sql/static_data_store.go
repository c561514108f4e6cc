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

// StaticDataStore keeps per-workflow values in leadtable_static_data, one row
// per (workflow_id, data_key).
type StaticDataStore struct {
	db   *bun.DB
	repo repository.Repository[*staticDataRecord]
}

func NewStaticDataStore(db *bun.DB) (*StaticDataStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*staticDataRecord](db, staticDataHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid static data repository wiring: %w", err)
		}
	}
	return &StaticDataStore{db: db, repo: repo}, nil
}

func (s *StaticDataStore) Get(ctx context.Context, workflowID, key string) ([]byte, bool, error) {
	if s == nil || s.repo == nil {
		return nil, false, fmt.Errorf("sqlstore: static data store is not configured")
	}
	workflowID, key, err := normalizeAddress(workflowID, key)
	if err != nil {
		return nil, false, err
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("workflow_id", "=", workflowID),
		repository.SelectBy("data_key", "=", key),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, false, err
	}
	if len(records) == 0 {
		return nil, false, nil
	}
	return append([]byte(nil), records[0].Value...), true, nil
}

func (s *StaticDataStore) Set(ctx context.Context, workflowID, key string, value []byte) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: static data store is not configured")
	}
	workflowID, key, err := normalizeAddress(workflowID, key)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	payload := append([]byte(nil), value...)

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := findStaticDataTx(ctx, tx, workflowID, key)
		if err != nil {
			return err
		}
		if record == nil {
			record = &staticDataRecord{
				ID:         uuid.NewString(),
				WorkflowID: workflowID,
				Key:        key,
				Value:      payload,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			_, insertErr := s.repo.CreateTx(ctx, tx, record)
			if insertErr == nil {
				return nil
			}
			if !isUniqueViolation(insertErr) {
				return insertErr
			}
		}
		_, err = tx.NewUpdate().
			Model((*staticDataRecord)(nil)).
			Set("value = ?", payload).
			Set("updated_at = ?", now).
			Where("workflow_id = ?", workflowID).
			Where("data_key = ?", key).
			Exec(ctx)
		return err
	})
}

func (s *StaticDataStore) Delete(ctx context.Context, workflowID, key string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: static data store is not configured")
	}
	workflowID, key, err := normalizeAddress(workflowID, key)
	if err != nil {
		return err
	}
	_, err = s.db.NewDelete().
		Model((*staticDataRecord)(nil)).
		Where("workflow_id = ?", workflowID).
		Where("data_key = ?", key).
		Exec(ctx)
	return err
}

func findStaticDataTx(ctx context.Context, tx bun.Tx, workflowID, key string) (*staticDataRecord, error) {
	record := &staticDataRecord{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.workflow_id = ?", workflowID).
		Where("?TableAlias.data_key = ?", key).
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

func normalizeAddress(workflowID, key string) (string, string, error) {
	workflowID = strings.TrimSpace(workflowID)
	key = strings.TrimSpace(key)
	if workflowID == "" || key == "" {
		return "", "", core.InvalidConfigurationError("sqlstore: workflow id and key are required", nil)
	}
	return workflowID, key, nil
}

var _ core.StaticDataStore = (*StaticDataStore)(nil)
