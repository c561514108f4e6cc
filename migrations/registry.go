// Package migrations hands the embedded LeadTable schema to a migration
// runner, one filesystem per SQL dialect.
package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	leadtable "github.com/goliatone/go-leadtable"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"

	rootPath = "data/sql/migrations"
)

type Dialect struct {
	Name string
	Path string
	FS   fs.FS
}

type Registration struct {
	SourceLabel string
	Targets     []string
	Registered  []Dialect
}

// RegisterFunc receives the *.up.sql/*.down.sql files of one dialect.
type RegisterFunc func(ctx context.Context, dialect string, sourceLabel string, fsys fs.FS) error

type Option func(*Registration)

func WithSourceLabel(label string) Option {
	return func(r *Registration) {
		if label = strings.TrimSpace(label); label != "" {
			r.SourceLabel = label
		}
	}
}

func WithValidationTargets(targets ...string) Option {
	return func(r *Registration) {
		var next []string
		for _, target := range targets {
			target = strings.ToLower(strings.TrimSpace(target))
			if target != "" && !slices.Contains(next, target) {
				next = append(next, target)
			}
		}
		if len(next) > 0 {
			r.Targets = next
		}
	}
}

// Dialects returns the postgres tree (data/sql/migrations) and the sqlite
// tree beneath it. Both must contain at least one up migration.
func Dialects() ([]Dialect, error) {
	root, err := fs.Sub(leadtable.GetMigrationsFS(), rootPath)
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve %s: %w", rootPath, err)
	}
	sqlite, err := fs.Sub(root, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve sqlite tree: %w", err)
	}
	dialects := []Dialect{
		{Name: DialectPostgres, Path: rootPath, FS: root},
		{Name: DialectSQLite, Path: rootPath + "/sqlite", FS: sqlite},
	}
	for _, dialect := range dialects {
		ups, err := fs.Glob(dialect.FS, "*.up.sql")
		if err != nil {
			return nil, fmt.Errorf("migrations: glob %s: %w", dialect.Path, err)
		}
		if len(ups) == 0 {
			return nil, fmt.Errorf("migrations: %s has no *.up.sql files", dialect.Path)
		}
	}
	return dialects, nil
}

// Register calls fn once per targeted dialect, in postgres, sqlite order.
func Register(ctx context.Context, fn RegisterFunc, opts ...Option) (Registration, error) {
	reg := Registration{
		SourceLabel: "go-leadtable",
		Targets:     []string{DialectPostgres, DialectSQLite},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&reg)
		}
	}
	if fn == nil {
		return reg, fmt.Errorf("migrations: register function is required")
	}

	dialects, err := Dialects()
	if err != nil {
		return reg, err
	}
	for _, dialect := range dialects {
		if !slices.Contains(reg.Targets, dialect.Name) {
			continue
		}
		if err := fn(ctx, dialect.Name, reg.SourceLabel, dialect.FS); err != nil {
			return reg, fmt.Errorf("migrations: register %s: %w", dialect.Name, err)
		}
		reg.Registered = append(reg.Registered, dialect)
	}
	if len(reg.Registered) == 0 {
		return reg, fmt.Errorf("migrations: no dialect matches targets %v", reg.Targets)
	}
	return reg, nil
}
