package domain

import (
	"strings"
	"time"
)

const DefaultAvatarURL = "https://www.chess.com/bundles/web/images/user-image.svg"

const DefaultStatus = "basic"

type Participant struct {
	Username string
	Rating   int
	Result   string // "win", "checkmated", "resigned", "repetition", ...
}

// Game is one finished match as reported by a monthly archive. Games are
// shared read-only between analysis passes and never mutated.
type Game struct {
	URL         string
	PGN         string
	FEN         string
	TimeClass   string // "bullet", "blitz", "rapid", "daily"
	TimeControl string
	Rules       string
	Rated       bool
	EndTime     int64 // unix seconds
	White       Participant
	Black       Participant
}

// Side resolves the analyzed user's slot. ok is false when either
// participant is missing a username; callers skip such games.
func (g Game) Side(username string) (user, opponent Participant, isWhite, ok bool) {
	if g.White.Username == "" || g.Black.Username == "" {
		return Participant{}, Participant{}, false, false
	}
	if strings.EqualFold(g.White.Username, username) {
		return g.White, g.Black, true, true
	}
	return g.Black, g.White, false, true
}

func (g Game) EndedAt() time.Time {
	return time.Unix(g.EndTime, 0).UTC()
}

type Profile struct {
	Username  string
	AvatarURL string
	Joined    int64 // unix seconds, 0 when unknown
	Status    string
}

type ArchiveCacheEntry struct {
	Username  string
	Year      int
	Month     int
	Games     []Game
	UpdatedAt time.Time
}

type CacheStatus string

const (
	CacheHit   CacheStatus = "hit"
	CacheStale CacheStatus = "stale"
	CacheMiss  CacheStatus = "miss"
)

// Status decides whether a cached month can be served without a refetch.
// Past months never expire; the month containing now expires after ttl.
func (e *ArchiveCacheEntry) Status(now time.Time, ttl time.Duration) CacheStatus {
	if e == nil {
		return CacheMiss
	}
	now = now.UTC()
	if e.Year != now.Year() || e.Month != int(now.Month()) {
		return CacheHit
	}
	if now.Sub(e.UpdatedAt) < ttl {
		return CacheHit
	}
	return CacheStale
}
