package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"chess-wrapped/internal/constants"
	"chess-wrapped/internal/db"
	"chess-wrapped/internal/domain"
)

// ArchiveRepository persists one row per (username, year, month). A write
// replaces the whole month, so retrying an upsert is harmless.
type ArchiveRepository struct {
	queries *db.Queries
	logger  zerolog.Logger
}

func NewArchiveRepository(queries *db.Queries, logger zerolog.Logger) *ArchiveRepository {
	return &ArchiveRepository{
		queries: queries,
		logger:  logger,
	}
}

// Get returns (nil, nil) when the month has never been cached.
func (r *ArchiveRepository) Get(ctx context.Context, username string, year, month int) (*domain.ArchiveCacheEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	row, err := r.queries.GetGameArchive(ctx, db.GetGameArchiveParams{
		Username: strings.ToLower(username),
		Year:     int64(year),
		Month:    int64(month),
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read archive %s %d-%02d: %w", username, year, month, err)
	}

	var stored []storedGame
	if err := json.Unmarshal([]byte(row.Games), &stored); err != nil {
		return nil, fmt.Errorf("failed to decode archive %s %d-%02d: %w", username, year, month, err)
	}

	games := make([]domain.Game, len(stored))
	for i, g := range stored {
		games[i] = g.toDomain()
	}

	r.logger.Debug().
		Str("username", row.Username).
		Int64("year", row.Year).
		Int64("month", row.Month).
		Int("game_count", len(games)).
		Time("updated_at", row.UpdatedAt).
		Msg("archive cache row loaded")

	return &domain.ArchiveCacheEntry{
		Username:  row.Username,
		Year:      int(row.Year),
		Month:     int(row.Month),
		Games:     games,
		UpdatedAt: row.UpdatedAt.UTC(),
	}, nil
}

func (r *ArchiveRepository) Upsert(ctx context.Context, entry *domain.ArchiveCacheEntry) error {
	stored := make([]storedGame, len(entry.Games))
	for i, g := range entry.Games {
		stored[i] = fromDomain(g)
	}
	payload, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode archive: %w", err)
	}

	id, err := gonanoid.New()
	if err != nil {
		return fmt.Errorf("failed to generate nanoid: %w", err)
	}

	updatedAt := entry.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	err = r.queries.UpsertGameArchive(ctx, db.UpsertGameArchiveParams{
		ID:        id,
		Username:  strings.ToLower(entry.Username),
		Year:      int64(entry.Year),
		Month:     int64(entry.Month),
		Games:     string(payload),
		GameCount: int64(len(entry.Games)),
		UpdatedAt: updatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert archive %s %d-%02d: %w", entry.Username, entry.Year, entry.Month, err)
	}
	return nil
}

type storedParticipant struct {
	Username string `json:"username"`
	Rating   int    `json:"rating"`
	Result   string `json:"result"`
}

type storedGame struct {
	URL         string            `json:"url"`
	PGN         string            `json:"pgn"`
	FEN         string            `json:"fen,omitempty"`
	TimeClass   string            `json:"time_class"`
	TimeControl string            `json:"time_control"`
	Rules       string            `json:"rules"`
	Rated       bool              `json:"rated"`
	EndTime     int64             `json:"end_time"`
	White       storedParticipant `json:"white"`
	Black       storedParticipant `json:"black"`
}

func fromDomain(g domain.Game) storedGame {
	return storedGame{
		URL:         g.URL,
		PGN:         g.PGN,
		FEN:         g.FEN,
		TimeClass:   g.TimeClass,
		TimeControl: g.TimeControl,
		Rules:       g.Rules,
		Rated:       g.Rated,
		EndTime:     g.EndTime,
		White:       storedParticipant(g.White),
		Black:       storedParticipant(g.Black),
	}
}

func (g storedGame) toDomain() domain.Game {
	return domain.Game{
		URL:         g.URL,
		PGN:         g.PGN,
		FEN:         g.FEN,
		TimeClass:   g.TimeClass,
		TimeControl: g.TimeControl,
		Rules:       g.Rules,
		Rated:       g.Rated,
		EndTime:     g.EndTime,
		White:       domain.Participant(g.White),
		Black:       domain.Participant(g.Black),
	}
}
