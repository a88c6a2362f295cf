package kv_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sheldonrobinson/piper1-gpl/pkg/kv"
)

// newTestStores returns one store per backend so every test exercises both
// the memory and the (in-memory) badger implementations.
func newTestStores(t *testing.T) map[string]kv.Store {
	t.Helper()

	b, err := kv.NewBadger(kv.BadgerOptions{InMemory: true})
	if err != nil {
		t.Fatalf("NewBadger: %v", err)
	}

	stores := map[string]kv.Store{
		"memory": kv.NewMemory(),
		"badger": b,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestGetSetDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "missing")
			if !errors.Is(err, kv.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}

			if err := s.Set(ctx, "k", []byte("hello")); err != nil {
				t.Fatalf("Set: %v", err)
			}
			got, err := s.Get(ctx, "k")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if string(got) != "hello" {
				t.Fatalf("Get = %q, want %q", got, "hello")
			}

			if err := s.Set(ctx, "k", []byte("world")); err != nil {
				t.Fatalf("Set overwrite: %v", err)
			}
			got, err = s.Get(ctx, "k")
			if err != nil {
				t.Fatalf("Get after overwrite: %v", err)
			}
			if string(got) != "world" {
				t.Fatalf("Get = %q, want %q", got, "world")
			}

			if err := s.Delete(ctx, "k"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := s.Get(ctx, "k"); !errors.Is(err, kv.ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}

			// Delete of a missing key is idempotent.
			if err := s.Delete(ctx, "no-such-key"); err != nil {
				t.Fatalf("Delete missing: %v", err)
			}
		})
	}
}

func TestLen(t *testing.T) {
	ctx := context.Background()
	for name, s := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, k := range []string{"a", "b", "c"} {
				if err := s.Set(ctx, k, []byte(k)); err != nil {
					t.Fatalf("Set: %v", err)
				}
			}
			n, err := s.Len(ctx)
			if err != nil {
				t.Fatalf("Len: %v", err)
			}
			if n != 3 {
				t.Fatalf("Len = %d, want 3", n)
			}
		})
	}
}

func TestBadgerRequiresDir(t *testing.T) {
	if _, err := kv.NewBadger(kv.BadgerOptions{}); err == nil {
		t.Fatal("expected error for missing Dir")
	}
}

func TestBadgerOnDisk(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := kv.NewBadger(kv.BadgerOptions{Dir: dir})
	if err != nil {
		t.Fatalf("NewBadger: %v", err)
	}
	if err := s.Set(ctx, "persist", []byte("v1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopen and verify the value survived.
	s, err = kv.NewBadger(kv.BadgerOptions{Dir: dir})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.Get(ctx, "persist")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if string(got) != "v1" {
		t.Fatalf("Get = %q, want %q", got, "v1")
	}
}
