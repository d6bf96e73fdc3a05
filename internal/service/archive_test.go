package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"chess-wrapped/internal/api"
	"chess-wrapped/internal/config"
	"chess-wrapped/internal/constants"
	"chess-wrapped/internal/domain"
)

var decemberNow = time.Date(2025, time.December, 15, 12, 0, 0, 0, time.UTC)

func cachedMonth(user string, month int, updated time.Time) *domain.ArchiveCacheEntry {
	return &domain.ArchiveCacheEntry{
		Username: user,
		Year:     2025,
		Month:    month,
		Games: []domain.Game{{
			URL:     fmt.Sprintf("cached-%02d", month),
			EndTime: time.Date(2025, time.Month(month), 3, 0, 0, 0, 0, time.UTC).Unix(),
			White:   domain.Participant{Username: user, Result: "win"},
			Black:   domain.Participant{Username: "opp", Result: "resigned"},
		}},
		UpdatedAt: updated,
	}
}

func TestFetchYearServesPastMonthsFromCache(t *testing.T) {
	var archives []string
	archives = append(archives, archiveURL("alice", 2024, 12))
	for m := 1; m <= 12; m++ {
		archives = append(archives, archiveURL("alice", 2025, m))
	}

	dec := archiveURL("alice", 2025, 12)
	client := &fakeClient{
		archives: &api.ArchivesResponse{Archives: archives},
		months: map[string]*api.MonthGamesResponse{
			dec: {Games: []api.GameRecord{
				record("live-2", time.Date(2025, 12, 14, 0, 0, 0, 0, time.UTC), "Alice", "bob", "win", "resigned"),
				record("live-1", time.Date(2025, 12, 2, 0, 0, 0, 0, time.UTC), "bob", "Alice", "win", "timeout"),
			}},
		},
	}

	cache := newFakeCache()
	for m := 1; m <= 11; m++ {
		cache.put(cachedMonth("alice", m, time.Date(2025, time.Month(m), 28, 0, 0, 0, 0, time.UTC)))
	}
	cache.put(cachedMonth("alice", 12, decemberNow.Add(-20*time.Hour)))

	svc, sleeps := newTestGameService(client, cache, decemberNow)
	got := svc.FetchYear(context.Background(), "Alice", 2025)

	if diff := cmp.Diff([]string{dec}, client.monthCalls); diff != "" {
		t.Fatalf("live fetches (-want +got):\n%s", diff)
	}
	if cache.gets != 12 {
		t.Errorf("cache reads = %d, want 12", cache.gets)
	}
	if len(cache.upserts) != 1 || cache.upserts[0].Month != 12 || len(cache.upserts[0].Games) != 2 {
		t.Fatalf("upserts = %+v, want one refreshed December entry", cache.upserts)
	}
	if !cache.upserts[0].UpdatedAt.Equal(decemberNow) {
		t.Errorf("UpdatedAt = %v, want %v", cache.upserts[0].UpdatedAt, decemberNow)
	}
	if *sleeps != 1 {
		t.Errorf("delays = %d, want 1 (one live fetch)", *sleeps)
	}
	if got.MonthsListed != 12 || got.MonthsLoaded != 12 {
		t.Errorf("coverage = %d/%d, want 12/12", got.MonthsLoaded, got.MonthsListed)
	}
	if len(got.Games) != 13 {
		t.Fatalf("games = %d, want 11 cached + 2 live", len(got.Games))
	}
	for i := 1; i < len(got.Games); i++ {
		if got.Games[i].EndTime < got.Games[i-1].EndTime {
			t.Fatalf("games not chronological at %d", i)
		}
	}
	if got.Games[11].URL != "live-1" || got.Games[12].URL != "live-2" {
		t.Errorf("december order = %s, %s", got.Games[11].URL, got.Games[12].URL)
	}
}

func TestFetchYearMonthFailures(t *testing.T) {
	nov := archiveURL("alice", 2025, 11)
	dec := archiveURL("alice", 2025, 12)
	boom := fmt.Errorf("API error 429: %w", api.ErrRateLimited)

	tests := []struct {
		name       string
		cached     []*domain.ArchiveCacheEntry
		getErr     error
		monthErr   map[string]error
		wantURLs   []string
		wantLoaded int
		wantUpsert int
	}{
		{
			name:       "stale month survives failed refetch",
			cached:     []*domain.ArchiveCacheEntry{cachedMonth("alice", 11, time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC)), cachedMonth("alice", 12, decemberNow.Add(-13*time.Hour))},
			monthErr:   map[string]error{dec: boom},
			wantURLs:   []string{"cached-11", "cached-12"},
			wantLoaded: 2,
		},
		{
			name:       "missing month skipped after failed fetch",
			cached:     []*domain.ArchiveCacheEntry{cachedMonth("alice", 11, time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC))},
			monthErr:   map[string]error{dec: errors.New("connection reset")},
			wantURLs:   []string{"cached-11"},
			wantLoaded: 1,
		},
		{
			name:       "cache read error is a miss",
			cached:     []*domain.ArchiveCacheEntry{cachedMonth("alice", 11, time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC))},
			getErr:     errors.New("database is locked"),
			wantURLs:   nil,
			wantLoaded: 2,
			wantUpsert: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{
				archives: &api.ArchivesResponse{Archives: []string{nov, dec}},
				monthErr: tt.monthErr,
			}
			cache := newFakeCache()
			for _, e := range tt.cached {
				cache.put(e)
			}
			cache.getErr = tt.getErr

			svc, _ := newTestGameService(client, cache, decemberNow)
			got := svc.FetchYear(context.Background(), "alice", 2025)

			var urls []string
			for _, g := range got.Games {
				urls = append(urls, g.URL)
			}
			if diff := cmp.Diff(tt.wantURLs, urls); diff != "" {
				t.Errorf("games (-want +got):\n%s", diff)
			}
			if got.MonthsLoaded != tt.wantLoaded || got.MonthsListed != 2 {
				t.Errorf("coverage = %d/%d, want %d/2", got.MonthsLoaded, got.MonthsListed, tt.wantLoaded)
			}
			if len(cache.upserts) != tt.wantUpsert {
				t.Errorf("upserts = %d, want %d", len(cache.upserts), tt.wantUpsert)
			}
		})
	}
}

func TestFetchYearArchiveIndexFailure(t *testing.T) {
	client := &fakeClient{archivesErr: fmt.Errorf("API error 429: %w", api.ErrRateLimited)}
	cache := newFakeCache()

	svc, _ := newTestGameService(client, cache, decemberNow)
	got := svc.FetchYear(context.Background(), "alice", 2025)

	if len(got.Games) != 0 || got.MonthsListed != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
	if cache.gets != 0 || len(client.monthCalls) != 0 {
		t.Fatalf("no month should be touched after index failure")
	}
}

func TestFetchYearUpsertFailureKeepsGames(t *testing.T) {
	dec := archiveURL("alice", 2025, 12)
	client := &fakeClient{
		archives: &api.ArchivesResponse{Archives: []string{dec}},
		months: map[string]*api.MonthGamesResponse{
			dec: {Games: []api.GameRecord{record("live", decemberNow, "alice", "bob", "win", "resigned")}},
		},
	}
	cache := newFakeCache()
	cache.upsertErr = errors.New("disk full")

	svc, _ := newTestGameService(client, cache, decemberNow)
	got := svc.FetchYear(context.Background(), "alice", 2025)

	if len(got.Games) != 1 || got.Games[0].URL != "live" {
		t.Fatalf("games = %+v, want the live game", got.Games)
	}
}

func TestFetchYearUnparseableArchiveSkipsCache(t *testing.T) {
	odd := "https://api.chess.com/pub/player/alice/games/2025/latest"
	client := &fakeClient{
		archives: &api.ArchivesResponse{Archives: []string{odd}},
		months: map[string]*api.MonthGamesResponse{
			odd: {Games: []api.GameRecord{record("odd", decemberNow, "alice", "bob", "win", "resigned")}},
		},
	}
	cache := newFakeCache()

	svc, _ := newTestGameService(client, cache, decemberNow)
	got := svc.FetchYear(context.Background(), "alice", 2025)

	if len(got.Games) != 1 {
		t.Fatalf("games = %d, want 1", len(got.Games))
	}
	if cache.gets != 0 || len(cache.upserts) != 0 {
		t.Fatalf("cache touched for unparseable archive: gets=%d upserts=%d", cache.gets, len(cache.upserts))
	}
}

func TestFetchYearKeepsDelayWhenCallerCancels(t *testing.T) {
	var archives []string
	for m := 1; m <= 4; m++ {
		archives = append(archives, archiveURL("alice", 2025, m))
	}
	client := &fakeClient{archives: &api.ArchivesResponse{Archives: archives}}
	cfg := &config.Config{ArchiveFetchDelay: 20 * time.Millisecond, CurrentMonthTTL: 12 * time.Hour}
	svc := NewGameService(client, newFakeCache(), cfg, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	svc.FetchYear(ctx, "alice", 2025)
	elapsed := time.Since(start)

	if len(client.monthCalls) != 4 {
		t.Fatalf("live fetches = %d, want 4", len(client.monthCalls))
	}
	if floor := 4 * cfg.ArchiveFetchDelay; elapsed < floor {
		t.Fatalf("elapsed = %v, want at least %v of inter-fetch delay", elapsed, floor)
	}
}

func TestFetchYearBoundsEachCall(t *testing.T) {
	var archives []string
	for m := 1; m <= 3; m++ {
		archives = append(archives, archiveURL("alice", 2025, m))
	}
	client := &fakeClient{archives: &api.ArchivesResponse{Archives: archives}}
	svc, _ := newTestGameService(client, newFakeCache(), decemberNow)

	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()
	svc.FetchYear(ctx, "alice", 2025)

	if len(client.budgets) != 4 {
		t.Fatalf("remote calls = %d, want index + 3 months", len(client.budgets))
	}
	for i, budget := range client.budgets {
		if budget <= 0 || budget > constants.ExternalAPITimeout {
			t.Errorf("call %d timeout budget = %v, want (0, %v]", i, budget, constants.ExternalAPITimeout)
		}
	}
}
