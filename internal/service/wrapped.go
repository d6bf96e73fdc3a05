package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"chess-wrapped/internal/analysis"
	"chess-wrapped/internal/config"
	"chess-wrapped/internal/domain"
	"chess-wrapped/internal/metrics"
)

var ErrEmptyUsername = errors.New("username is required")

// Coverage reports how many of the year's monthly archives made it into the
// report. A short year with MonthsLoaded == MonthsListed is genuinely quiet.
type Coverage struct {
	MonthsListed int `json:"monthsListed"`
	MonthsLoaded int `json:"monthsLoaded"`
}

type Report struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl"`
	JoinDate  int64  `json:"joinDate"`
	Status    string `json:"status"`
	Year      int    `json:"year"`

	analysis.GeneralStats
	analysis.RatingStats
	analysis.OpeningStats
	analysis.TournamentStats

	TopFriends        []analysis.FriendStat     `json:"topFriends"`
	ImpressiveMatches []analysis.HighlightMatch `json:"impressiveMatches"`
	Coverage          Coverage                  `json:"coverage"`
}

type WrappedService struct {
	profiles *ProfileService
	games    *GameService
	avatars  *AvatarService
	year     int
	logger   zerolog.Logger
}

func NewWrappedService(profiles *ProfileService, games *GameService, avatars *AvatarService, cfg *config.Config, logger zerolog.Logger) *WrappedService {
	return &WrappedService{
		profiles: profiles,
		games:    games,
		avatars:  avatars,
		year:     cfg.Year,
		logger:   logger,
	}
}

func (s *WrappedService) Generate(ctx context.Context, username string) (*Report, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrEmptyUsername
	}

	// a report runs to completion once started; each remote call carries
	// its own timeout
	ctx = context.WithoutCancel(ctx)

	start := time.Now()
	s.logger.Info().Str("username", username).Int("year", s.year).Msg("generating report")

	var (
		profile domain.Profile
		fetched FetchResult
	)
	var g errgroup.Group
	g.Go(func() error {
		profile = s.profiles.GetProfile(ctx, username)
		return nil
	})
	g.Go(func() error {
		fetched = s.games.FetchYear(ctx, username, s.year)
		return nil
	})
	_ = g.Wait()

	games := fetched.Games
	var (
		general     analysis.GeneralStats
		ratings     analysis.RatingStats
		openings    analysis.OpeningStats
		friends     []analysis.FriendStat
		highlights  []analysis.HighlightMatch
		tournaments analysis.TournamentStats
	)
	var ag errgroup.Group
	ag.Go(func() error { general = analysis.General(games, username); return nil })
	ag.Go(func() error { ratings = analysis.Ratings(games, username); return nil })
	ag.Go(func() error { openings = analysis.Openings(games, username); return nil })
	ag.Go(func() error { friends = analysis.Friends(games, username); return nil })
	ag.Go(func() error { highlights = analysis.Highlights(games, username); return nil })
	ag.Go(func() error { tournaments = analysis.Tournaments(games, username); return nil })
	_ = ag.Wait()

	s.avatars.Enrich(ctx, friends, highlights)

	report := &Report{
		Username:          profile.Username,
		AvatarURL:         profile.AvatarURL,
		JoinDate:          profile.Joined,
		Status:            profile.Status,
		Year:              s.year,
		GeneralStats:      general,
		RatingStats:       ratings,
		OpeningStats:      openings,
		TournamentStats:   tournaments,
		TopFriends:        friends,
		ImpressiveMatches: highlights,
		Coverage: Coverage{
			MonthsListed: fetched.MonthsListed,
			MonthsLoaded: fetched.MonthsLoaded,
		},
	}
	if report.ImpressiveMatches == nil {
		report.ImpressiveMatches = []analysis.HighlightMatch{}
	}

	elapsed := time.Since(start)
	metrics.ReportsGenerated.Inc()
	metrics.ReportDuration.Observe(elapsed.Seconds())

	s.logger.Info().
		Str("username", report.Username).
		Int("games", report.TotalGames).
		Int("months_loaded", report.Coverage.MonthsLoaded).
		Int("months_listed", report.Coverage.MonthsListed).
		Dur("elapsed", elapsed).
		Msg("report generated")

	return report, nil
}
