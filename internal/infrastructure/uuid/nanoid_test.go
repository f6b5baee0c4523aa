package uuid

import (
	"strings"
	"testing"
)

func TestNanoIDGenerator(t *testing.T) {
	g := NewNanoIDGenerator(24)
	a, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, _ := g.Generate()
	if len(a) != 24 || len(b) != 24 {
		t.Fatalf("unexpected lengths %d %d", len(a), len(b))
	}
	if a == b {
		t.Fatal("ids should differ")
	}
}

func TestNanoIDGeneratorRejectsZeroLength(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	NewNanoIDGenerator(0)
}

func TestSessionIDGeneratorAlphabet(t *testing.T) {
	g := NewSessionIDGenerator(32)
	for i := 0; i < 20; i++ {
		id, err := g.Generate()
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if len(id) != 32 {
			t.Fatalf("unexpected length %d", len(id))
		}
		for _, r := range id {
			if !strings.ContainsRune(SessionAlphabet, r) {
				t.Fatalf("id %q contains %q", id, r)
			}
		}
	}
}
