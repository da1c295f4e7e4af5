package migration

import (
	"errors"
	"testing"
	"testing/fstest"
)

func TestScanner_Scan(t *testing.T) {
	t.Parallel()

	t.Run("sorts by numeric version and reads descriptions", func(t *testing.T) {
		t.Parallel()
		fsys := fstest.MapFS{
			"migrations/010_late.sql":          {Data: []byte("CREATE TABLE late (id TEXT);")},
			"migrations/002_second.sql":        {Data: []byte("-- Description: add second table\nCREATE TABLE second (id TEXT);")},
			"migrations/001_initial_schema.sql": {Data: []byte("CREATE TABLE first (id TEXT);")},
			"migrations/README.md":             {Data: []byte("ignored")},
		}

		migrations, err := NewScanner(fsys, "migrations").Scan()
		if err != nil {
			t.Fatalf("Scan returned error: %v", err)
		}
		if len(migrations) != 3 {
			t.Fatalf("expected 3 migrations, got %d", len(migrations))
		}
		if migrations[0].Version != "001" || migrations[1].Version != "002" || migrations[2].Version != "010" {
			t.Fatalf("unexpected order: %s %s %s", migrations[0].Version, migrations[1].Version, migrations[2].Version)
		}
		if migrations[0].Description != "initial schema" {
			t.Fatalf("expected file name description, got %q", migrations[0].Description)
		}
		if migrations[1].Description != "add second table" {
			t.Fatalf("expected comment description, got %q", migrations[1].Description)
		}
		if migrations[0].Checksum == "" {
			t.Fatalf("expected checksum")
		}
	})

	t.Run("rejects bad names", func(t *testing.T) {
		t.Parallel()
		fsys := fstest.MapFS{"migrations/initial.sql": {Data: []byte("SELECT 1;")}}

		_, err := NewScanner(fsys, "migrations").Scan()
		if !errors.Is(err, ErrInvalidMigrationFile) {
			t.Fatalf("expected ErrInvalidMigrationFile, got %v", err)
		}
	})

	t.Run("rejects duplicate versions", func(t *testing.T) {
		t.Parallel()
		fsys := fstest.MapFS{
			"migrations/1_a.sql":   {Data: []byte("SELECT 1;")},
			"migrations/001_b.sql": {Data: []byte("SELECT 1;")},
		}

		_, err := NewScanner(fsys, "migrations").Scan()
		if !errors.Is(err, ErrDuplicateVersion) {
			t.Fatalf("expected ErrDuplicateVersion, got %v", err)
		}
	})

	t.Run("rejects comment only files", func(t *testing.T) {
		t.Parallel()
		fsys := fstest.MapFS{"migrations/001_empty.sql": {Data: []byte("-- nothing here\n")}}

		_, err := NewScanner(fsys, "migrations").Scan()
		if !errors.Is(err, ErrInvalidMigrationFile) {
			t.Fatalf("expected ErrInvalidMigrationFile, got %v", err)
		}
	})
}

func TestSplitStatements(t *testing.T) {
	t.Parallel()

	sql := `-- header comment
CREATE TABLE a (id TEXT);

-- second
CREATE INDEX idx_a ON a(id);
`
	statements := splitStatements(sql)
	if len(statements) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(statements), statements)
	}
	if statements[0] != "CREATE TABLE a (id TEXT)" {
		t.Fatalf("unexpected first statement %q", statements[0])
	}
}
