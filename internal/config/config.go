package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"chess-wrapped/internal/constants"
)

type Config struct {
	ChessAPIBaseURL   string
	ChessAPIUserAgent string
	Year              int
	DBPath            string
	ServerPort        string
	ArchiveFetchDelay time.Duration
	CurrentMonthTTL   time.Duration
	AvatarBatchSize   int
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	year, err := strconv.Atoi(getEnv("WRAPPED_YEAR", "2025"))
	if err != nil {
		return nil, fmt.Errorf("invalid WRAPPED_YEAR: %w", err)
	}
	delay, err := time.ParseDuration(getEnv("ARCHIVE_FETCH_DELAY", constants.ArchiveFetchDelay.String()))
	if err != nil {
		return nil, fmt.Errorf("invalid ARCHIVE_FETCH_DELAY: %w", err)
	}
	ttl, err := time.ParseDuration(getEnv("CURRENT_MONTH_TTL", constants.CurrentMonthTTL.String()))
	if err != nil {
		return nil, fmt.Errorf("invalid CURRENT_MONTH_TTL: %w", err)
	}
	batch, err := strconv.Atoi(getEnv("AVATAR_BATCH_SIZE", strconv.Itoa(constants.AvatarBatchSize)))
	if err != nil || batch < 1 || batch > constants.AvatarBatchSize {
		return nil, fmt.Errorf("invalid AVATAR_BATCH_SIZE %q: must be between 1 and %d", os.Getenv("AVATAR_BATCH_SIZE"), constants.AvatarBatchSize)
	}

	cfg := &Config{
		ChessAPIBaseURL:   getEnv("CHESS_API_BASE_URL", "https://api.chess.com/pub"),
		ChessAPIUserAgent: getEnv("CHESS_API_USER_AGENT", ""),
		Year:              year,
		DBPath:            getEnv("DB_PATH", "wrapped.db"),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		ArchiveFetchDelay: delay,
		CurrentMonthTTL:   ttl,
		AvatarBatchSize:   batch,
	}

	// chess.com asks every client to identify a contact
	if cfg.ChessAPIUserAgent == "" {
		return nil, fmt.Errorf("CHESS_API_USER_AGENT is required")
	}

	logger.Info().
		Str("api_base_url", cfg.ChessAPIBaseURL).
		Int("year", cfg.Year).
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", logger.GetLevel().String()).
		Dur("archive_fetch_delay", cfg.ArchiveFetchDelay).
		Dur("current_month_ttl", cfg.CurrentMonthTTL).
		Int("avatar_batch_size", cfg.AvatarBatchSize).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
