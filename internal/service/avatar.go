package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"chess-wrapped/internal/analysis"
	"chess-wrapped/internal/config"
	"chess-wrapped/internal/constants"
	"chess-wrapped/internal/domain"
	"chess-wrapped/internal/metrics"
)

type AvatarService struct {
	client    RecordsClient
	batchSize int
	logger    zerolog.Logger
}

// NewAvatarService caps the configured batch size at
// constants.AvatarBatchSize simultaneous lookups.
func NewAvatarService(client RecordsClient, cfg *config.Config, logger zerolog.Logger) *AvatarService {
	batch := min(max(cfg.AvatarBatchSize, 1), constants.AvatarBatchSize)
	if batch != cfg.AvatarBatchSize {
		logger.Warn().
			Int("configured", cfg.AvatarBatchSize).
			Int("effective", batch).
			Msg("avatar batch size out of range, clamped")
	}
	return &AvatarService{client: client, batchSize: batch, logger: logger}
}

// Enrich fills the avatar of every friend and highlight opponent in place.
// Lookups run batchSize at a time and a batch finishes before the next one
// starts. Failed lookups fall back to the placeholder avatar.
func (s *AvatarService) Enrich(ctx context.Context, friends []analysis.FriendStat, matches []analysis.HighlightMatch) {
	var names []string
	seen := map[string]bool{}
	add := func(name string) {
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			return
		}
		seen[key] = true
		names = append(names, name)
	}
	for _, f := range friends {
		add(f.Username)
	}
	for _, m := range matches {
		add(m.Opponent)
	}

	avatars := make(map[string]string, len(names))
	for start := 0; start < len(names); start += s.batchSize {
		batch := names[start:min(start+s.batchSize, len(names))]
		resolved := make([]string, len(batch))

		var g errgroup.Group
		for i, name := range batch {
			g.Go(func() error {
				resolved[i] = s.lookup(ctx, name)
				return nil
			})
		}
		_ = g.Wait()

		for i, name := range batch {
			avatars[strings.ToLower(name)] = resolved[i]
		}
	}

	avatarFor := func(name string) string {
		if a, ok := avatars[strings.ToLower(name)]; ok && a != "" {
			return a
		}
		return domain.DefaultAvatarURL
	}
	for i := range friends {
		friends[i].AvatarURL = avatarFor(friends[i].Username)
	}
	for i := range matches {
		matches[i].OpponentAvatarURL = avatarFor(matches[i].Opponent)
	}

	s.logger.Debug().Int("opponents", len(names)).Msg("avatars resolved")
}

func (s *AvatarService) lookup(ctx context.Context, username string) string {
	apiCtx, apiCancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer apiCancel()

	resp, err := s.client.GetProfile(apiCtx, username)
	if err != nil {
		s.logger.Warn().Err(err).Str("username", username).Msg("avatar lookup failed, using placeholder")
		metrics.AvatarLookups.WithLabelValues("error").Inc()
		return domain.DefaultAvatarURL
	}
	if resp.Avatar == "" {
		metrics.AvatarLookups.WithLabelValues("placeholder").Inc()
		return domain.DefaultAvatarURL
	}
	metrics.AvatarLookups.WithLabelValues("ok").Inc()
	return resp.Avatar
}
