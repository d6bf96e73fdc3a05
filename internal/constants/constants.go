package constants

import "time"

const (
	// months other than the current one never expire
	CurrentMonthTTL   = 12 * time.Hour
	ArchiveFetchDelay = 200 * time.Millisecond
)

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	AvatarBatchSize       = 5
	TopFriendsLimit       = 10
	TopOpeningsLimit      = 10
	HighlightMatchesLimit = 5
	MinOpeningGames       = 5
	MinHighlightPlies     = 10
	MinDecisiveMoves      = 2
)
