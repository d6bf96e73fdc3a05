package analysis

import (
	"sort"
	"strings"
	"time"

	"github.com/notnil/chess"

	"chess-wrapped/internal/constants"
	"chess-wrapped/internal/domain"
	"chess-wrapped/internal/pgn"
)

type HighlightMatch struct {
	Opponent          string `json:"opponent"`
	OpponentRating    int    `json:"opponentElo"`
	RatingGap         int    `json:"eloGap"`
	Date              string `json:"date"`
	URL               string `json:"url"`
	TimeClass         string `json:"timeControl"`
	OpponentAvatarURL string `json:"opponentAvatarUrl"`
	FEN               string `json:"fen"`
}

// Highlights picks the wins against the strongest opposition relative to the
// user's own rating. Bots, very short games and repeated permalinks are
// ignored.
func Highlights(games []domain.Game, username string) []HighlightMatch {
	seen := map[string]bool{}
	var out []HighlightMatch

	for _, g := range chronological(games) {
		if g.URL != "" {
			if seen[g.URL] {
				continue
			}
			seen[g.URL] = true
		}

		user, opp, _, ok := g.Side(username)
		if !ok || user.Result != "win" {
			continue
		}
		if strings.Contains(strings.ToLower(opp.Username), "bot") {
			continue
		}
		if len(pgn.Plies(g.PGN)) <= constants.MinHighlightPlies {
			continue
		}

		out = append(out, HighlightMatch{
			Opponent:       opp.Username,
			OpponentRating: opp.Rating,
			RatingGap:      opp.Rating - user.Rating,
			Date:           g.EndedAt().Format(time.DateOnly),
			URL:            g.URL,
			TimeClass:      g.TimeClass,
			FEN:            boardFEN(g.FEN),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].RatingGap > out[j].RatingGap })
	return limit(out, constants.HighlightMatchesLimit)
}

// boardFEN passes a final position through only when it parses, so a
// renderer never receives a broken board.
func boardFEN(fen string) string {
	if fen == "" {
		return ""
	}
	if _, err := chess.FEN(fen); err != nil {
		return ""
	}
	return fen
}
