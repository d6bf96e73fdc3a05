package domain

import (
	"testing"
	"time"
)

func TestArchiveCacheEntryStatus(t *testing.T) {
	now := time.Date(2025, time.December, 20, 12, 0, 0, 0, time.UTC)
	ttl := 12 * time.Hour

	tests := []struct {
		name  string
		entry *ArchiveCacheEntry
		want  CacheStatus
	}{
		{"missing", nil, CacheMiss},
		{"past month written long ago", &ArchiveCacheEntry{Year: 2025, Month: 3, UpdatedAt: now.AddDate(0, -8, 0)}, CacheHit},
		{"past year same month number", &ArchiveCacheEntry{Year: 2024, Month: 12, UpdatedAt: now.AddDate(-1, 0, 0)}, CacheHit},
		{"current month fresh", &ArchiveCacheEntry{Year: 2025, Month: 12, UpdatedAt: now.Add(-time.Hour)}, CacheHit},
		{"current month just under ttl", &ArchiveCacheEntry{Year: 2025, Month: 12, UpdatedAt: now.Add(-ttl + time.Second)}, CacheHit},
		{"current month at ttl", &ArchiveCacheEntry{Year: 2025, Month: 12, UpdatedAt: now.Add(-ttl)}, CacheStale},
		{"current month 20h old", &ArchiveCacheEntry{Year: 2025, Month: 12, UpdatedAt: now.Add(-20 * time.Hour)}, CacheStale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.Status(now, ttl); got != tt.want {
				t.Fatalf("Status() = %s, want %s", got, tt.want)
			}
			// same inputs, same answer
			if got := tt.entry.Status(now, ttl); got != tt.want {
				t.Fatalf("second Status() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGameSide(t *testing.T) {
	g := Game{
		White: Participant{Username: "Hikaru", Rating: 3200, Result: "win"},
		Black: Participant{Username: "opponent", Rating: 2900, Result: "resigned"},
	}

	user, opp, isWhite, ok := g.Side("hikaru")
	if !ok || !isWhite || user.Rating != 3200 || opp.Username != "opponent" {
		t.Fatalf("Side(hikaru) = %+v %+v %v %v", user, opp, isWhite, ok)
	}

	user, _, isWhite, ok = g.Side("OPPONENT")
	if !ok || isWhite || user.Result != "resigned" {
		t.Fatalf("Side(OPPONENT) = %+v %v %v", user, isWhite, ok)
	}

	g.Black.Username = ""
	if _, _, _, ok := g.Side("hikaru"); ok {
		t.Fatal("expected incomplete game to be rejected")
	}
}
