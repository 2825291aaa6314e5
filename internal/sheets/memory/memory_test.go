package memory

import (
	"context"
	"errors"
	"testing"

	ports "rizesync/internal/sheets"
)

func TestStore_Upsert(t *testing.T) {
	s := New()
	ctx := context.Background()

	ref, err := s.Upsert(ctx, ports.MetricsRow{Kind: "daily", Key: "2024-01-01", WorkHours: 1})
	if err != nil || ref != "mem:2" {
		t.Fatalf("unexpected upsert: ref=%q err=%v", ref, err)
	}
	if _, err := s.Upsert(ctx, ports.MetricsRow{Kind: "weekly", Key: "2024-W01", WorkHours: 9}); err != nil {
		t.Fatal(err)
	}

	ref, err = s.Upsert(ctx, ports.MetricsRow{Kind: "daily", Key: "2024-01-01", WorkHours: 2})
	if err != nil || ref != "mem:2" {
		t.Fatalf("unexpected replace: ref=%q err=%v", ref, err)
	}

	rows := s.Rows()
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].WorkHours != 2 {
		t.Errorf("daily row work hours = %v, want 2", rows[0].WorkHours)
	}
}

func TestStore_FailWith(t *testing.T) {
	s := New()
	boom := errors.New("quota exceeded")
	s.FailWith(boom)

	if _, err := s.Upsert(context.Background(), ports.MetricsRow{Kind: "daily", Key: "k"}); !errors.Is(err, boom) {
		t.Errorf("Upsert() error = %v, want %v", err, boom)
	}

	s.FailWith(nil)
	if _, err := s.Upsert(context.Background(), ports.MetricsRow{Kind: "daily", Key: "k"}); err != nil {
		t.Errorf("Upsert() after clearing failure: %v", err)
	}
}
