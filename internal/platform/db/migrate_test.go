package db

import (
	"testing"
	"testing/fstest"
	"time"

	"github.com/ehr/enrollment/migrations"
)

func mapFS(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return fsys
}

func TestLoadMigrations(t *testing.T) {
	migrator := NewMigrator(nil, mapFS(map[string]string{
		"001_core.sql":     "CREATE TABLE practitioner (id UUID PRIMARY KEY);",
		"002_leads.sql":    "CREATE TABLE lead (id UUID PRIMARY KEY);",
		"003_consents.sql": "CREATE TABLE consent (id UUID PRIMARY KEY);",
	}), "")

	migrations, err := migrator.LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "001_core.sql" {
		t.Errorf("unexpected first migration %+v", migrations[0])
	}
	if migrations[0].SQL != "CREATE TABLE practitioner (id UUID PRIMARY KEY);" {
		t.Errorf("unexpected SQL content: %s", migrations[0].SQL)
	}
	if migrations[2].Version != 3 {
		t.Errorf("expected version 3, got %d", migrations[2].Version)
	}
}

func TestLoadMigrations_SortOrder(t *testing.T) {
	migrator := NewMigrator(nil, mapFS(map[string]string{
		"010_tables.sql": "SELECT 10;",
		"002_second.sql": "SELECT 2;",
		"001_first.sql":  "SELECT 1;",
		"005_middle.sql": "SELECT 5;",
	}), "")

	migrations, err := migrator.LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}

	expectedVersions := []int{1, 2, 5, 10}
	if len(migrations) != len(expectedVersions) {
		t.Fatalf("expected %d migrations, got %d", len(expectedVersions), len(migrations))
	}
	for i, expected := range expectedVersions {
		if migrations[i].Version != expected {
			t.Errorf("migration[%d]: expected version %d, got %d", i, expected, migrations[i].Version)
		}
	}
}

func TestLoadMigrations_InvalidFilename(t *testing.T) {
	migrator := NewMigrator(nil, mapFS(map[string]string{
		"001_valid.sql":      "SELECT 1;",
		"readme.sql":         "-- this has no version prefix",
		"notes.txt":          "not a sql file",
		"abc_invalid.sql":    "-- non-numeric prefix",
		"002_also_valid.sql": "SELECT 2;",
	}), "")

	migrations, err := migrator.LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 valid migrations, got %d", len(migrations))
	}
}

func TestLoadMigrations_DuplicateVersion(t *testing.T) {
	migrator := NewMigrator(nil, mapFS(map[string]string{
		"001_a.sql": "SELECT 1;",
		"001_b.sql": "SELECT 1;",
	}), "")
	if _, err := migrator.LoadMigrations(); err == nil {
		t.Error("expected error for duplicate version")
	}
}

func TestLoadMigrations_Embedded(t *testing.T) {
	migrator := NewMigrator(nil, migrations.FS, "")
	loaded, err := migrator.LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(loaded) == 0 || loaded[0].Version != 1 {
		t.Fatalf("expected embedded migrations starting at version 1, got %+v", loaded)
	}
}

func TestPending(t *testing.T) {
	migs := []Migration{{Version: 1}, {Version: 2}, {Version: 3}, {Version: 4}}
	applied := map[int]time.Time{1: time.Now()}

	if got := pending(migs, applied, 0); len(got) != 3 || got[0].Version != 2 {
		t.Errorf("expected versions 2-4 pending, got %+v", got)
	}
	if got := pending(migs, applied, 3); len(got) != 2 || got[1].Version != 3 {
		t.Errorf("expected versions 2-3 up to target, got %+v", got)
	}
}

func TestStatuses(t *testing.T) {
	at := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	got := statuses(
		[]Migration{{Version: 1, Name: "001_enrollment.sql"}, {Version: 2, Name: "002_seed.sql"}},
		map[int]time.Time{1: at},
	)

	if len(got) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(got))
	}
	if !got[0].Applied || got[0].AppliedAt == nil || !got[0].AppliedAt.Equal(at) {
		t.Errorf("expected migration 1 applied at %v, got %+v", at, got[0])
	}
	if got[1].Applied || got[1].AppliedAt != nil {
		t.Errorf("expected migration 2 pending, got %+v", got[1])
	}
}

func TestNewMigrator_DefaultSchema(t *testing.T) {
	m := NewMigrator(nil, fstest.MapFS{}, "")
	if m.schema != DefaultSchema {
		t.Errorf("expected schema %s, got %s", DefaultSchema, m.schema)
	}
	if m := NewMigrator(nil, fstest.MapFS{}, "enrollment"); m.schema != "enrollment" {
		t.Errorf("expected schema enrollment, got %s", m.schema)
	}
}
