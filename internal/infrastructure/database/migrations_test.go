package database

import (
	"context"
	"testing"
	"testing/fstest"
	"time"
)

// testMigrations is a two-step schema used by the migration tests.
func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"sql/20260301_090000_create_nodes.up.sql": {
			Data: []byte("CREATE TABLE test_nodes (mac TEXT PRIMARY KEY, name TEXT NOT NULL);"),
		},
		"sql/20260301_090000_create_nodes.down.sql": {
			Data: []byte("DROP TABLE test_nodes;"),
		},
		"sql/20260302_100000_create_readings.up.sql": {
			Data: []byte("CREATE TABLE test_readings (mac TEXT NOT NULL, watts REAL);"),
		},
		"sql/20260302_100000_create_readings.down.sql": {
			Data: []byte("DROP TABLE test_readings;"),
		},
		"sql/README.md": {
			Data: []byte("not a migration"),
		},
	}
}

// useMigrations swaps the package migration source for the duration of a test.
func useMigrations(t *testing.T, fsys fstest.MapFS, dir string) {
	t.Helper()
	origFS, origDir := MigrationsFS, MigrationsDir
	t.Cleanup(func() {
		MigrationsFS = origFS
		MigrationsDir = origDir
	})
	if fsys == nil {
		MigrationsFS = nil
	} else {
		MigrationsFS = fsys
	}
	MigrationsDir = dir
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name,
	).Scan(&count)
	if err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	return count == 1
}

// TestMigrate verifies migration application.
func TestMigrate(t *testing.T) {
	useMigrations(t, testMigrations(), "sql")

	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	for _, table := range []string{"test_nodes", "test_readings"} {
		if !tableExists(t, db, table) {
			t.Errorf("table %s not created", table)
		}
	}

	applied, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(applied) != 2 {
		t.Errorf("expected 2 applied migrations, got %d", len(applied))
	}
	if len(pending) != 0 {
		t.Errorf("expected 0 pending migrations, got %d", len(pending))
	}
	if len(applied) == 2 && applied[0].Version != "20260301_090000" {
		t.Errorf("applied[0].Version = %q, want oldest first", applied[0].Version)
	}

	// Running again should be idempotent
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

// TestMigrateDown verifies that only the latest migration is rolled back.
func TestMigrateDown(t *testing.T) {
	useMigrations(t, testMigrations(), "sql")

	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := db.MigrateDown(ctx); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}

	if tableExists(t, db, "test_readings") {
		t.Error("table test_readings should have been dropped")
	}
	if !tableExists(t, db, "test_nodes") {
		t.Error("table test_nodes should still exist")
	}

	applied, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(applied) != 1 || len(pending) != 1 {
		t.Errorf("applied=%d pending=%d, want 1 and 1", len(applied), len(pending))
	}
}

// TestMigrateDownNothingApplied verifies rollback on a fresh database.
func TestMigrateDownNothingApplied(t *testing.T) {
	useMigrations(t, testMigrations(), "sql")

	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	if err := db.MigrateDown(context.Background()); err != nil {
		t.Fatalf("MigrateDown() on fresh database error = %v", err)
	}
}

// TestMigrateNoMigrations verifies behaviour with no migration source.
func TestMigrateNoMigrations(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
		dir  string
	}{
		{name: "nil filesystem", fsys: nil, dir: "."},
		{name: "missing directory", fsys: testMigrations(), dir: "nowhere"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useMigrations(t, tt.fsys, tt.dir)

			db := openTestDB(t)
			defer db.Close() //nolint:errcheck // Test cleanup

			if err := db.Migrate(context.Background()); err != nil {
				t.Fatalf("Migrate() with no migrations error = %v", err)
			}
		})
	}
}

// TestMigrateFailureKeepsEarlierMigrations verifies per-migration transactions.
func TestMigrateFailureKeepsEarlierMigrations(t *testing.T) {
	fsys := testMigrations()
	fsys["sql/20260302_100000_create_readings.up.sql"] = &fstest.MapFile{
		Data: []byte("CREATE TABLE test_readings (;"),
	}
	useMigrations(t, fsys, "sql")

	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background()); err == nil {
		t.Fatal("Migrate() with broken SQL should fail")
	}
	if !tableExists(t, db, "test_nodes") {
		t.Error("first migration should remain committed")
	}

	applied, _, err := db.GetMigrationStatus(context.Background())
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(applied) != 1 {
		t.Errorf("expected 1 applied migration, got %d", len(applied))
	}
}

// TestLoadMigrationsDownWithoutUp verifies orphan down files are rejected.
func TestLoadMigrationsDownWithoutUp(t *testing.T) {
	useMigrations(t, fstest.MapFS{
		"20260303_000000_orphan.down.sql": {Data: []byte("DROP TABLE x;")},
	}, ".")

	if _, err := loadMigrations(); err == nil {
		t.Error("loadMigrations() should reject a down file with no up file")
	}
}

// TestParseMigrationFilename verifies filename parsing.
func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		wantVersion string
		wantIsUp    bool
		wantOk      bool
	}{
		{
			name:        "valid up migration",
			filename:    "20260118_120000_power_calibrations.up.sql",
			wantVersion: "20260118_120000",
			wantIsUp:    true,
			wantOk:      true,
		},
		{
			name:        "valid down migration",
			filename:    "20260118_120000_power_calibrations.down.sql",
			wantVersion: "20260118_120000",
			wantIsUp:    false,
			wantOk:      true,
		},
		{
			name:     "not sql file",
			filename: "readme.txt",
			wantOk:   false,
		},
		{
			name:     "missing direction",
			filename: "20260118_120000_power_calibrations.sql",
			wantOk:   false,
		},
		{
			name:     "invalid format",
			filename: "invalid.up.sql",
			wantOk:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, isUp, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOk {
				t.Errorf("ok = %v, want %v", ok, tt.wantOk)
			}
			if ok {
				if version != tt.wantVersion {
					t.Errorf("version = %v, want %v", version, tt.wantVersion)
				}
				if isUp != tt.wantIsUp {
					t.Errorf("isUp = %v, want %v", isUp, tt.wantIsUp)
				}
			}
		})
	}
}

func TestExtractMigrationName(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"20260118_120000_power_calibrations.up.sql", "power_calibrations"},
		{"20260118_120000_initial_schema.down.sql", "initial_schema"},
		{"20260118_120000.up.sql", "20260118_120000"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got := extractMigrationName(tt.filename)
			if got != tt.want {
				t.Errorf("extractMigrationName(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}
