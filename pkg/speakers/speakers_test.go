package speakers

import (
	"reflect"
	"testing"
)

func TestRegisterFirstSeenOrder(t *testing.T) {
	r := New()

	if id := r.Register("alice"); id != 0 {
		t.Fatalf("alice = %d, want 0", id)
	}
	if id := r.Register("bob"); id != 1 {
		t.Fatalf("bob = %d, want 1", id)
	}
	if id := r.Register("alice"); id != 0 {
		t.Fatalf("alice again = %d, want 0", id)
	}
	if id := r.Register("carol"); id != 2 {
		t.Fatalf("carol = %d, want 2", id)
	}

	if r.Len() != 3 {
		t.Fatalf("Len = %d, want 3", r.Len())
	}
	if got := r.Names(); !reflect.DeepEqual(got, []string{"alice", "bob", "carol"}) {
		t.Fatalf("Names = %v", got)
	}
}

func TestMapSnapshot(t *testing.T) {
	r := New()
	r.Register("a")
	r.Register("b")

	m := r.Map()
	if !reflect.DeepEqual(m, map[string]int64{"a": 0, "b": 1}) {
		t.Fatalf("Map = %v", m)
	}

	// Mutating the snapshot must not affect the registry.
	m["c"] = 99
	if _, ok := r.Lookup("c"); ok {
		t.Fatal("snapshot mutation leaked into registry")
	}
}

func TestReproducibleAcrossScans(t *testing.T) {
	scan := []string{"s2", "s1", "s2", "s3", "s1"}

	run := func() map[string]int64 {
		r := New()
		for _, name := range scan {
			r.Register(name)
		}
		return r.Map()
	}

	if !reflect.DeepEqual(run(), run()) {
		t.Fatal("identical scans produced different speaker maps")
	}
}
