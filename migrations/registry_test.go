package migrations

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	leadtable "github.com/goliatone/go-leadtable"
	_ "github.com/mattn/go-sqlite3"
)

func TestDialects_ReturnsPostgresAndSQLite(t *testing.T) {
	dialects, err := Dialects()
	if err != nil {
		t.Fatalf("dialects: %v", err)
	}
	if len(dialects) != 2 || dialects[0].Name != DialectPostgres || dialects[1].Name != DialectSQLite {
		t.Fatalf("unexpected dialects %#v", dialects)
	}
	for _, dialect := range dialects {
		if _, err := fs.Stat(dialect.FS, "0001_leadtable_static_data.up.sql"); err != nil {
			t.Fatalf("expected static data migration in %s: %v", dialect.Path, err)
		}
	}
	if _, err := fs.Stat(dialects[0].FS, "sqlite"); err != nil {
		t.Fatalf("expected sqlite tree beneath the postgres root: %v", err)
	}
}

func TestRegister_HonoursTargetsAndLabel(t *testing.T) {
	var calls []string
	reg, err := Register(context.Background(), func(_ context.Context, dialect string, label string, _ fs.FS) error {
		calls = append(calls, dialect+"@"+label)
		return nil
	}, WithValidationTargets(" SQLite ", "sqlite"), WithSourceLabel("receiver"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(calls) != 1 || calls[0] != "sqlite@receiver" {
		t.Fatalf("unexpected registration calls %v", calls)
	}
	if len(reg.Registered) != 1 || reg.Registered[0].Name != DialectSQLite {
		t.Fatalf("unexpected registration %#v", reg)
	}
}

func TestRegister_Failures(t *testing.T) {
	if _, err := Register(context.Background(), nil); err == nil {
		t.Fatalf("expected missing register function to fail")
	}
	noop := func(context.Context, string, string, fs.FS) error { return nil }
	if _, err := Register(context.Background(), noop, WithValidationTargets("mysql")); err == nil {
		t.Fatalf("expected unknown dialect target to fail")
	}
	failing := func(context.Context, string, string, fs.FS) error { return fs.ErrPermission }
	if _, err := Register(context.Background(), failing); err == nil || !strings.Contains(err.Error(), "postgres") {
		t.Fatalf("expected runner failure to name the dialect, got %v", err)
	}
}

func TestMigrationPairs_ExistForBothDialects(t *testing.T) {
	root := leadtable.GetMigrationsFS()
	for _, name := range []string{"0001_leadtable_static_data", "0002_leadtable_inbound_claims"} {
		for _, dir := range []string{"data/sql/migrations", "data/sql/migrations/sqlite"} {
			for _, suffix := range []string{".up.sql", ".down.sql"} {
				migrationPath := dir + "/" + name + suffix
				content, err := fs.ReadFile(root, migrationPath)
				if err != nil {
					t.Fatalf("read migration %s: %v", migrationPath, err)
				}
				if strings.TrimSpace(string(content)) == "" {
					t.Fatalf("expected migration %s to have SQL content", migrationPath)
				}
			}
		}
	}
}

func TestSQLiteStaticDataMigration_ApplyAndRollback(t *testing.T) {
	db, err := sql.Open("sqlite3", "file:migrations-static-data?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	sqliteMigrations, err := fs.Sub(leadtable.GetMigrationsFS(), "data/sql/migrations/sqlite")
	if err != nil {
		t.Fatalf("resolve sqlite migrations: %v", err)
	}
	ctx := context.Background()
	if err := execSQLMigration(ctx, db, sqliteMigrations, "0001_leadtable_static_data.up.sql"); err != nil {
		t.Fatalf("apply up: %v", err)
	}

	insert := `INSERT INTO leadtable_static_data (id, workflow_id, data_key, value) VALUES (?, ?, ?, ?)`
	if _, err := db.ExecContext(ctx, insert, "row-1", "wf_1", "webhook:default", []byte("{}")); err != nil {
		t.Fatalf("insert first row: %v", err)
	}
	if _, err := db.ExecContext(ctx, insert, "row-2", "wf_1", "webhook:default", []byte("{}")); err == nil {
		t.Fatalf("expected unique (workflow_id, data_key) violation")
	}
	if _, err := db.ExecContext(ctx, insert, "row-3", "wf_2", "webhook:default", []byte("{}")); err != nil {
		t.Fatalf("insert other workflow: %v", err)
	}

	if err := execSQLMigration(ctx, db, sqliteMigrations, "0001_leadtable_static_data.down.sql"); err != nil {
		t.Fatalf("apply down: %v", err)
	}
	var name string
	err = db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", "leadtable_static_data").Scan(&name)
	if err != sql.ErrNoRows {
		t.Fatalf("expected table to be dropped, got %q (%v)", name, err)
	}
}

func execSQLMigration(ctx context.Context, db *sql.DB, fsys fs.FS, filename string) error {
	content, err := fs.ReadFile(fsys, filepath.Clean(filename))
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, string(content))
	return err
}
