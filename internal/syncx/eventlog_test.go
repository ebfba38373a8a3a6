package syncx

import (
	"context"
	"testing"

	"github.com/mind-engage/examgrade/internal/db"
)

func TestAppendAndSince(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(ctx, db.DriverSQLite, "file:eventlog?mode=memory&cache=shared")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	repo := NewEventRepo(conn)
	for _, key := range []string{"a1", "a2", "a3"} {
		e, err := NewEvent("", TypeAttemptSubmitted, key, map[string]string{"attempt_id": key})
		if err != nil {
			t.Fatal(err)
		}
		if err := repo.Append(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	evs, err := Since(ctx, conn, 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) != 2 || evs[0].Key != "a1" || evs[1].Key != "a2" {
		t.Fatalf("first page = %+v", evs)
	}
	if evs[0].SiteID != "local" {
		t.Fatalf("SiteID = %q, want local", evs[0].SiteID)
	}

	rest, err := Since(ctx, conn, evs[1].Seq, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 1 || rest[0].Key != "a3" {
		t.Fatalf("rest = %+v", rest)
	}
}
