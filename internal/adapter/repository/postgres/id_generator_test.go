package postgres

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestULIDGeneratorMonotonicWithinMillisecond(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	g := NewULIDGenerator()
	g.now = func() time.Time { return fixed }

	prev := g.Generate()
	for i := 0; i < 100; i++ {
		next := g.Generate()
		if next <= prev {
			t.Fatalf("expected %s > %s", next, prev)
		}
		prev = next
	}

	id, err := ulid.Parse(prev)
	if err != nil {
		t.Fatalf("generated invalid ULID: %v", err)
	}
	if ulid.Time(id.Time()).UnixMilli() != fixed.UnixMilli() {
		t.Fatalf("unexpected timestamp %v", ulid.Time(id.Time()))
	}
}
