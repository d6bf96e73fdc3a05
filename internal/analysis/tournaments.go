package analysis

import (
	"sort"
	"strings"

	"chess-wrapped/internal/domain"
	"chess-wrapped/internal/pgn"
)

type TournamentStat struct {
	Variant string `json:"variant"`
	Count   int    `json:"count"`
	WinRate int    `json:"winRate"`
}

type TournamentStats struct {
	Count   int              `json:"tournamentCount"`
	Summary []TournamentStat `json:"tournamentSummary"`
}

// Tournaments counts distinct tournament entries. One event spans many
// games, so entries are keyed by event name and date rather than by game.
func Tournaments(games []domain.Game, username string) TournamentStats {
	type variantTally struct {
		events      map[string]struct{}
		games, wins int
	}

	entries := map[string]struct{}{}
	variants := map[string]*variantTally{}

	for _, g := range games {
		event, ok := pgn.Tag(g.PGN, "Event")
		if !ok {
			continue
		}
		event = strings.ToLower(event)
		if !strings.Contains(event, "tournament") && !strings.Contains(event, "arena") {
			continue
		}
		user, _, _, ok := g.Side(username)
		if !ok {
			continue
		}

		date, ok := pgn.Tag(g.PGN, "Date")
		if !ok {
			date = "unknown"
		}
		key := event + "|" + date
		entries[key] = struct{}{}

		name := variantName(g.TimeClass)
		v, ok := variants[name]
		if !ok {
			v = &variantTally{events: map[string]struct{}{}}
			variants[name] = v
		}
		v.events[key] = struct{}{}
		v.games++
		if user.Result == "win" {
			v.wins++
		}
	}

	summary := make([]TournamentStat, 0, len(variants))
	for name, v := range variants {
		summary = append(summary, TournamentStat{
			Variant: name,
			Count:   len(v.events),
			WinRate: percent(v.wins, v.games),
		})
	}
	sort.Slice(summary, func(i, j int) bool {
		if summary[i].Count != summary[j].Count {
			return summary[i].Count > summary[j].Count
		}
		return summary[i].Variant < summary[j].Variant
	})

	return TournamentStats{Count: len(entries), Summary: summary}
}
