package stats

import (
	"errors"
	"testing"
	"time"

	"github.com/emiliopalmerini/timecode/internal/domain"
)

func TestResolveRange(t *testing.T) {
	today := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		from, to string
		maxDays  int
		want     domain.DateRange
		wantErr  bool
	}{
		{"defaults to trailing week", "", "", 0, domain.DateRange{From: "2025-03-04", To: "2025-03-10"}, false},
		{"explicit range", "2025-01-01", "2025-01-31", 0, domain.DateRange{From: "2025-01-01", To: "2025-01-31"}, false},
		{"single day", "2025-02-02", "2025-02-02", 0, domain.DateRange{From: "2025-02-02", To: "2025-02-02"}, false},
		{"only from", "2025-03-01", "", 0, domain.DateRange{From: "2025-03-01", To: "2025-03-10"}, false},
		{"exactly max days", "2025-01-01", "2025-01-10", 10, domain.DateRange{From: "2025-01-01", To: "2025-01-10"}, false},
		{"one more than max", "2025-01-01", "2025-01-11", 10, domain.DateRange{}, true},
		{"leap year full range", "2024-01-01", "2024-12-31", 0, domain.DateRange{From: "2024-01-01", To: "2024-12-31"}, false},
		{"367 days", "2024-01-01", "2025-01-01", 0, domain.DateRange{}, true},
		{"from after to", "2025-03-02", "2025-03-01", 0, domain.DateRange{}, true},
		{"bad format", "03/01/2025", "2025-03-02", 0, domain.DateRange{}, true},
		{"impossible date", "2025-02-30", "2025-03-02", 0, domain.DateRange{}, true},
		{"datetime rejected", "2025-03-01T00:00:00Z", "2025-03-02", 0, domain.DateRange{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveRange(tt.from, tt.to, today, tt.maxDays)
			if tt.wantErr {
				var ve *domain.ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestService_RangeUsesConfiguredZone(t *testing.T) {
	// 23:30 UTC on the 10th is already the 11th in UTC+9.
	svc := NewService(nil, 0, time.FixedZone("UTC+9", 9*60*60))
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC) }

	rng, err := svc.Range("", "")
	if err != nil {
		t.Fatalf("Range failed: %v", err)
	}
	if rng.To != "2025-03-11" || rng.From != "2025-03-05" {
		t.Errorf("unexpected range %+v", rng)
	}
}
