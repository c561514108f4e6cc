// Package sqlstore persists LeadTable workflow static data and inbound
// delivery claims through go-repository-bun.
package sqlstore

import (
	"errors"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-leadtable/core"
	"github.com/uptrace/bun"
)

type RepositoryFactory struct {
	db         *bun.DB
	staticData *StaticDataStore
	claims     *ClaimStore
}

// NewRepositoryFactoryFromPersistence builds the stores on a migrated
// go-persistence-bun client.
func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	if client == nil {
		return nil, errors.New("sqlstore: persistence client is required")
	}
	return NewRepositoryFactory(client.DB())
}

func NewRepositoryFactory(db *bun.DB) (*RepositoryFactory, error) {
	if db == nil {
		return nil, errors.New("sqlstore: bun db is required")
	}
	staticData, err := NewStaticDataStore(db)
	if err != nil {
		return nil, err
	}
	claims, err := NewClaimStore(db)
	if err != nil {
		return nil, err
	}
	return &RepositoryFactory{db: db, staticData: staticData, claims: claims}, nil
}

func (f *RepositoryFactory) DB() *bun.DB {
	return f.db
}

func (f *RepositoryFactory) StaticDataStore() core.StaticDataStore {
	return f.staticData
}

func (f *RepositoryFactory) ClaimStore() core.IdempotencyClaimStore {
	return f.claims
}
