package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chess-wrapped/internal/api"
	"chess-wrapped/internal/domain"
)

type fakeClient struct {
	mu sync.Mutex

	profiles    map[string]*api.ProfileResponse
	profileErr  map[string]error
	archives    *api.ArchivesResponse
	archivesErr error
	months      map[string]*api.MonthGamesResponse
	monthErr    map[string]error

	profileCalls []string
	monthCalls   []string
	inFlight     int
	maxInFlight  int
	profileDelay time.Duration

	// per call: time left before the context deadline, and whether the
	// context was already done
	budgets   []time.Duration
	cancelled int
}

func (f *fakeClient) observe(ctx context.Context) {
	budget := time.Duration(-1)
	if deadline, ok := ctx.Deadline(); ok {
		budget = time.Until(deadline)
	}
	f.budgets = append(f.budgets, budget)
	if ctx.Err() != nil {
		f.cancelled++
	}
}

func (f *fakeClient) GetProfile(ctx context.Context, username string) (*api.ProfileResponse, error) {
	f.mu.Lock()
	f.observe(ctx)
	f.profileCalls = append(f.profileCalls, username)
	f.inFlight++
	f.maxInFlight = max(f.maxInFlight, f.inFlight)
	f.mu.Unlock()

	if f.profileDelay > 0 {
		time.Sleep(f.profileDelay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--
	key := strings.ToLower(username)
	if err := f.profileErr[key]; err != nil {
		return nil, err
	}
	if p, ok := f.profiles[key]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("API error 404: %w", api.ErrNotFound)
}

func (f *fakeClient) GetArchives(ctx context.Context, username string) (*api.ArchivesResponse, error) {
	f.mu.Lock()
	f.observe(ctx)
	f.mu.Unlock()
	if f.archivesErr != nil {
		return nil, f.archivesErr
	}
	if f.archives == nil {
		return &api.ArchivesResponse{}, nil
	}
	return f.archives, nil
}

func (f *fakeClient) GetMonthGames(ctx context.Context, archiveURL string) (*api.MonthGamesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observe(ctx)
	f.monthCalls = append(f.monthCalls, archiveURL)
	if err := f.monthErr[archiveURL]; err != nil {
		return nil, err
	}
	if m, ok := f.months[archiveURL]; ok {
		return m, nil
	}
	return &api.MonthGamesResponse{}, nil
}

type cacheKey struct {
	username    string
	year, month int
}

type fakeCache struct {
	entries   map[cacheKey]*domain.ArchiveCacheEntry
	getErr    error
	upsertErr error
	gets      int
	upserts   []*domain.ArchiveCacheEntry
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[cacheKey]*domain.ArchiveCacheEntry{}}
}

func (c *fakeCache) put(e *domain.ArchiveCacheEntry) {
	c.entries[cacheKey{e.Username, e.Year, e.Month}] = e
}

func (c *fakeCache) Get(ctx context.Context, username string, year, month int) (*domain.ArchiveCacheEntry, error) {
	c.gets++
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.entries[cacheKey{username, year, month}], nil
}

func (c *fakeCache) Upsert(ctx context.Context, entry *domain.ArchiveCacheEntry) error {
	c.upserts = append(c.upserts, entry)
	if c.upsertErr != nil {
		return c.upsertErr
	}
	c.put(entry)
	return nil
}

func newTestGameService(client RecordsClient, cache ArchiveCache, now time.Time) (*GameService, *int) {
	sleeps := 0
	return &GameService{
		client: client,
		cache:  cache,
		delay:  200 * time.Millisecond,
		ttl:    12 * time.Hour,
		logger: zerolog.Nop(),
		now:    func() time.Time { return now },
		sleep:  func(time.Duration) { sleeps++ },
	}, &sleeps
}

func archiveURL(user string, year, month int) string {
	return fmt.Sprintf("https://api.chess.com/pub/player/%s/games/%d/%02d", user, year, month)
}

func record(url string, end time.Time, white, black string, whiteResult, blackResult string) api.GameRecord {
	return api.GameRecord{
		URL:       url,
		PGN:       "1. e4 e5 2. Nf3 Nc6",
		TimeClass: "blitz",
		Rated:     true,
		EndTime:   end.Unix(),
		White:     api.PlayerRecord{Username: white, Rating: 1500, Result: whiteResult},
		Black:     api.PlayerRecord{Username: black, Rating: 1500, Result: blackResult},
	}
}
