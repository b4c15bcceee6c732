package seed

import (
	"database/sql"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/Simplici0/quote-estimator/internal/db"
	"github.com/Simplici0/quote-estimator/internal/migrations"
)

func openSeeded(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "seed-test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return database
}

func TestRunIsIdempotent(t *testing.T) {
	database := openSeeded(t)

	cfg := Config{
		AdminEmail:    "admin@estimator.test",
		AdminPassword: "12345",
		PipelineID:    "pipe-1",
		Stages: map[string]string{
			"setup":              "st-setup",
			"migration":          "st-migration",
			"monthly_management": "",
		},
	}

	for i := 0; i < 10; i++ {
		stats, err := Run(database, cfg)
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			if stats.Inserts != 3 {
				t.Fatalf("expected 3 inserts in first run, got %d", stats.Inserts)
			}
			continue
		}
		if stats.Inserts != 0 || stats.Updates != 0 {
			t.Fatalf("expected no changes in iteration %d, got %+v", i, stats)
		}
	}

	assertCount(t, database, `SELECT COUNT(*) FROM users WHERE email = ?`, "admin@estimator.test", 1)
	assertCount(t, database, `SELECT COUNT(*) FROM pipeline_stages`, nil, 2)
	assertCount(t, database, `SELECT COUNT(*) FROM pipeline_stages WHERE pipeline_key = ? AND stage_id = ?`, []any{"setup", "st-setup"}, 1)

	var hash string
	if err := database.QueryRow(`SELECT password_hash FROM users WHERE email = ?`, "admin@estimator.test").Scan(&hash); err != nil {
		t.Fatalf("query admin hash: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("12345")); err != nil {
		t.Fatalf("expected admin hash to match password: %v", err)
	}
}

func TestRunUpdatesChangedStages(t *testing.T) {
	database := openSeeded(t)

	if _, err := Run(database, Config{PipelineID: "pipe-1", Stages: map[string]string{"setup": "a"}}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	stats, err := Run(database, Config{PipelineID: "pipe-2", Stages: map[string]string{"setup": "b"}})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if stats.Updates != 1 || stats.Inserts != 0 {
		t.Fatalf("expected one update, got %+v", stats)
	}
	assertCount(t, database, `SELECT COUNT(*) FROM pipeline_stages WHERE pipeline_id = ? AND stage_id = ?`, []any{"pipe-2", "b"}, 1)
}

func TestRunWithoutPipelineSkipsStages(t *testing.T) {
	database := openSeeded(t)

	stats, err := Run(database, Config{Stages: map[string]string{"setup": "a"}})
	if err != nil {
		t.Fatalf("run seed: %v", err)
	}
	if stats.Inserts != 0 {
		t.Fatalf("expected no inserts, got %d", stats.Inserts)
	}
	assertCount(t, database, `SELECT COUNT(*) FROM pipeline_stages`, nil, 0)
}

func assertCount(t *testing.T, database *sql.DB, query string, args any, expected int) {
	t.Helper()

	var count int
	var err error
	switch v := args.(type) {
	case nil:
		err = database.QueryRow(query).Scan(&count)
	case []any:
		err = database.QueryRow(query, v...).Scan(&count)
	default:
		err = database.QueryRow(query, v).Scan(&count)
	}
	if err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != expected {
		t.Fatalf("expected count %d, got %d", expected, count)
	}
}
