package sql

import (
	"context"
	"os"
	"testing"
)

// TestFetchAgainstRealPostgres only runs when DATABASE_URL names a live
// Postgres instance; this package has no fake for database/sql itself.
// pkg/load's tests exercise the Db dispatch (row mapping, no rows) against
// a fake DbClient instead.
func TestFetchAgainstRealPostgres(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping live Postgres integration test")
	}

	c := New()
	defer c.Close()

	rows, err := c.Fetch(context.Background(), dsn, "users", []string{"id"}, "1=1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	t.Logf("fetched %d row(s)", len(rows))
}
