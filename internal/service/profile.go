package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"chess-wrapped/internal/api"
	"chess-wrapped/internal/constants"
	"chess-wrapped/internal/domain"
)

type ProfileService struct {
	client RecordsClient
	logger zerolog.Logger
}

func NewProfileService(client RecordsClient, logger zerolog.Logger) *ProfileService {
	return &ProfileService{client: client, logger: logger}
}

// GetProfile never fails: an unreachable or missing profile is replaced by
// one with default avatar and status so the report can still be built.
func (s *ProfileService) GetProfile(ctx context.Context, username string) domain.Profile {
	apiCtx, apiCancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer apiCancel()

	resp, err := s.client.GetProfile(apiCtx, username)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("username", username).
			Bool("rate_limited", errors.Is(err, api.ErrRateLimited)).
			Bool("not_found", errors.Is(err, api.ErrNotFound)).
			Msg("profile lookup failed, using defaults")
		return mapProfile(username, nil)
	}
	return mapProfile(username, resp)
}
