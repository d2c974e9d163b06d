package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/termlab/termpool/internal/pool"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	// Verify file was created
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	tables := []string{"symbols", "terms", "term_args", "snapshots"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	p := pool.New()
	sess := p.NewSession()
	defer sess.Close()

	root, err := sess.Parse(`pair("x",[f(1,2),g(a)])`)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	ctx := context.Background()
	if err := s.SaveSnapshot(ctx, "round", root); err != nil {
		t.Fatalf("SaveSnapshot() failed: %v", err)
	}

	loader := p.NewSession()
	defer loader.Close()

	loaded, err := s.LoadSnapshot(ctx, "round", loader)
	if err != nil {
		t.Fatalf("LoadSnapshot() failed: %v", err)
	}

	// Loading into the same pool must land on the identical record.
	if loaded != root {
		t.Errorf("loaded term %v is not the original record %v", loaded, root)
	}
}

func TestSaveLoadAcrossPools(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	src := pool.New().NewSession()
	defer src.Close()

	root, err := src.Parse(`[f(-7,"hi"),[],f(-7,"hi")]`)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	ctx := context.Background()
	if err := s.SaveSnapshot(ctx, "xfer", root); err != nil {
		t.Fatalf("SaveSnapshot() failed: %v", err)
	}

	dst := pool.New().NewSession()
	defer dst.Close()

	loaded, err := s.LoadSnapshot(ctx, "xfer", dst)
	if err != nil {
		t.Fatalf("LoadSnapshot() failed: %v", err)
	}
	if got, want := loaded.String(), root.String(); got != want {
		t.Errorf("loaded term renders %q, want %q", got, want)
	}
}

func TestSaveSnapshotReplacesExisting(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	sess := pool.New().NewSession()
	defer sess.Close()

	ctx := context.Background()
	first := sess.MakeInt(1)
	second := sess.MakeInt(2)

	if err := s.SaveSnapshot(ctx, "latest", first); err != nil {
		t.Fatalf("first SaveSnapshot() failed: %v", err)
	}
	if err := s.SaveSnapshot(ctx, "latest", second); err != nil {
		t.Fatalf("second SaveSnapshot() failed: %v", err)
	}

	loaded, err := s.LoadSnapshot(ctx, "latest", sess)
	if err != nil {
		t.Fatalf("LoadSnapshot() failed: %v", err)
	}
	if loaded != second {
		t.Errorf("loaded %v, want the replacement root %v", loaded, second)
	}
}

func TestLoadSnapshot_NotFound(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	sess := pool.New().NewSession()
	defer sess.Close()

	_, err = s.LoadSnapshot(context.Background(), "nope", sess)
	if !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("LoadSnapshot() error = %v, want ErrSnapshotNotFound", err)
	}
}

func TestSaveSnapshot_SharedSubtermsStoredOnce(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	sess := pool.New().NewSession()
	defer sess.Close()

	// g(a) appears twice in the graph but is one shared record.
	root, err := sess.Parse(`f(g(a),g(a))`)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	if err := s.SaveSnapshot(context.Background(), "shared", root); err != nil {
		t.Fatalf("SaveSnapshot() failed: %v", err)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM terms").Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	// f(g(a),g(a)) stores three rows: a, g(a), and the root.
	if count != 3 {
		t.Errorf("terms table has %d rows, want 3", count)
	}
}
