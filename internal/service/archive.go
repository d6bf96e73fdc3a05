package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"chess-wrapped/internal/api"
	"chess-wrapped/internal/config"
	"chess-wrapped/internal/constants"
	"chess-wrapped/internal/domain"
	"chess-wrapped/internal/metrics"
)

// RecordsClient is the read-only surface of the public records API.
type RecordsClient interface {
	GetProfile(ctx context.Context, username string) (*api.ProfileResponse, error)
	GetArchives(ctx context.Context, username string) (*api.ArchivesResponse, error)
	GetMonthGames(ctx context.Context, archiveURL string) (*api.MonthGamesResponse, error)
}

// ArchiveCache stores one month of games per user. Get returns (nil, nil)
// on a miss.
type ArchiveCache interface {
	Get(ctx context.Context, username string, year, month int) (*domain.ArchiveCacheEntry, error)
	Upsert(ctx context.Context, entry *domain.ArchiveCacheEntry) error
}

// FetchResult is the merged year of games plus how much of the archive index
// was actually loaded. MonthsLoaded < MonthsListed means some months were
// skipped after a failed fetch.
type FetchResult struct {
	Games        []domain.Game
	MonthsListed int
	MonthsLoaded int
}

type GameService struct {
	client RecordsClient
	cache  ArchiveCache
	delay  time.Duration
	ttl    time.Duration
	logger zerolog.Logger

	now   func() time.Time
	sleep func(d time.Duration)
}

func NewGameService(client RecordsClient, cache ArchiveCache, cfg *config.Config, logger zerolog.Logger) *GameService {
	return &GameService{
		client: client,
		cache:  cache,
		delay:  cfg.ArchiveFetchDelay,
		ttl:    cfg.CurrentMonthTTL,
		logger: logger,
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// FetchYear walks the user's monthly archives for year one month at a time,
// serving cached months and refreshing the rest. An unreachable archive index
// gives an empty result, not an error.
func (s *GameService) FetchYear(ctx context.Context, username string, year int) FetchResult {
	username = strings.ToLower(username)

	apiCtx, apiCancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer apiCancel()

	index, err := s.client.GetArchives(apiCtx, username)
	if err != nil {
		s.logger.Error().Err(err).
			Str("username", username).
			Bool("rate_limited", errors.Is(err, api.ErrRateLimited)).
			Msg("failed to fetch archive index")
		return FetchResult{}
	}

	archives := filterArchivesByYear(index.Archives, year)
	result := FetchResult{MonthsListed: len(archives)}

	s.logger.Info().
		Str("username", username).
		Int("year", year).
		Int("months", len(archives)).
		Msg("fetching monthly archives")

	for _, archiveURL := range archives {
		games, ok := s.loadMonth(ctx, username, archiveURL)
		if !ok {
			continue
		}
		result.MonthsLoaded++
		result.Games = append(result.Games, games...)
	}

	sort.SliceStable(result.Games, func(i, j int) bool {
		return result.Games[i].EndTime < result.Games[j].EndTime
	})

	s.logger.Info().
		Str("username", username).
		Int("games", len(result.Games)).
		Int("months_loaded", result.MonthsLoaded).
		Int("months_listed", result.MonthsListed).
		Msg("archives merged")

	return result
}

func (s *GameService) loadMonth(ctx context.Context, username, archiveURL string) ([]domain.Game, bool) {
	year, month, parsed := parseArchiveMonth(archiveURL)
	if !parsed {
		s.logger.Warn().Str("archive_url", archiveURL).Msg("unrecognised archive url, fetching without cache")
		return s.fetchMonth(ctx, archiveURL)
	}

	log := s.logger.With().Str("username", username).Int("year", year).Int("month", month).Logger()

	entry, err := s.cache.Get(ctx, username, year, month)
	if err != nil {
		log.Warn().Err(err).Msg("archive cache read failed, treating as miss")
		metrics.ArchiveCacheLookups.WithLabelValues("error").Inc()
		entry = nil
	}

	status := entry.Status(s.now(), s.ttl)
	if err == nil {
		metrics.ArchiveCacheLookups.WithLabelValues(string(status)).Inc()
	}

	if status == domain.CacheHit {
		log.Debug().Int("games", len(entry.Games)).Msg("archive cache hit")
		return entry.Games, true
	}

	games, ok := s.fetchMonth(ctx, archiveURL)
	if !ok {
		if status == domain.CacheStale {
			log.Warn().Msg("refetch failed, serving stale month")
			return entry.Games, true
		}
		return nil, false
	}

	err = s.cache.Upsert(ctx, &domain.ArchiveCacheEntry{
		Username:  username,
		Year:      year,
		Month:     month,
		Games:     games,
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to write archive cache")
	}

	return games, true
}

// fetchMonth performs one live month fetch followed by the inter-call delay.
// The delay runs even when the caller has gone away.
func (s *GameService) fetchMonth(ctx context.Context, archiveURL string) ([]domain.Game, bool) {
	defer s.sleep(s.delay)

	apiCtx, apiCancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer apiCancel()

	resp, err := s.client.GetMonthGames(apiCtx, archiveURL)
	if err != nil {
		s.logger.Error().Err(err).
			Str("archive_url", archiveURL).
			Bool("rate_limited", errors.Is(err, api.ErrRateLimited)).
			Msg("failed to fetch month archive")
		return nil, false
	}

	s.logger.Debug().Str("archive_url", archiveURL).Int("games", len(resp.Games)).Msg("month archive fetched")
	return mapGames(resp.Games), true
}
