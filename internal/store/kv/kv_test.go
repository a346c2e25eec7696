package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok=%v err=%v; want absent", ok, err)
	}

	if err := s.Set(ctx, "current_latitude", "52.08"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "current_latitude", "52.09"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}

	v, ok, err := s.Get(ctx, "current_latitude")
	if err != nil || !ok {
		t.Fatalf("Get = ok=%v err=%v", ok, err)
	}
	if v != "52.09" {
		t.Fatalf("value = %q, want 52.09", v)
	}
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestSqlite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	s, err := OpenSqlite(context.Background(), path)
	if err != nil {
		t.Fatalf("OpenSqlite: %v", err)
	}
	exerciseStore(t, s)

	// Data survives reopening.
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	s2, err := OpenSqlite(context.Background(), path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if v, ok, _ := s2.Get(context.Background(), "current_latitude"); !ok || v != "52.09" {
		t.Fatalf("after reopen got %q ok=%v", v, ok)
	}
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := OpenRedis(context.Background(), "redis://"+mr.Addr()+"/0")
	if err != nil {
		t.Fatalf("OpenRedis: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)

	if got, _ := mr.Get(redisPrefix + "current_latitude"); got != "52.09" {
		t.Fatalf("raw redis value = %q", got)
	}
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("LABRADAR_TEST_POSTGRES")
	if dsn == "" {
		t.Skip("LABRADAR_TEST_POSTGRES not set")
	}
	s, err := OpenPostgres(context.Background(), dsn)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestOpenSchemes(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, "memory://")
	if err != nil {
		t.Fatalf("Open(memory): %v", err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Fatalf("Open(memory) returned %T", s)
	}

	if _, err := Open(ctx, "nope"); err == nil {
		t.Fatal("expected error for missing scheme")
	}
	if _, err := Open(ctx, "ftp://x"); err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
}
