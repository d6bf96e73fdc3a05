package analysis

import (
	"sort"

	"chess-wrapped/internal/constants"
	"chess-wrapped/internal/domain"
	"chess-wrapped/internal/pgn"
)

type OpeningStat struct {
	Name             string `json:"name"`
	Count            int    `json:"count"`
	WinRate          int    `json:"winRate"`
	HighestWinRating int    `json:"highestWinElo"`
}

type OpeningStats struct {
	UniqueWhiteOpenings int           `json:"uniqueWhiteVariants"`
	UniqueBlackOpenings int           `json:"uniqueBlackVariants"`
	TopWhite            []OpeningStat `json:"topOpeningsWhite"`
	TopBlack            []OpeningStat `json:"topOpeningsBlack"`
	WorstWhite          []OpeningStat `json:"worstOpeningsWhite"`
	WorstBlack          []OpeningStat `json:"worstOpeningsBlack"`
}

type openingTally struct {
	total, wins, highestWin int
}

func Openings(games []domain.Game, username string) OpeningStats {
	white := map[string]*openingTally{}
	black := map[string]*openingTally{}

	for _, g := range games {
		name := pgn.Opening(g.PGN)
		if pgn.IsPlaceholder(name) {
			continue
		}
		user, opp, isWhite, ok := g.Side(username)
		if !ok {
			continue
		}

		book := black
		if isWhite {
			book = white
		}
		t, ok := book[name]
		if !ok {
			t = &openingTally{}
			book[name] = t
		}
		t.total++
		if user.Result == "win" {
			t.wins++
			t.highestWin = max(t.highestWin, opp.Rating)
		}
	}

	return OpeningStats{
		UniqueWhiteOpenings: len(white),
		UniqueBlackOpenings: len(black),
		TopWhite:            mostPlayed(white),
		TopBlack:            mostPlayed(black),
		WorstWhite:          worstPerforming(white),
		WorstBlack:          worstPerforming(black),
	}
}

// qualifying drops openings below the sample floor.
func qualifying(book map[string]*openingTally) []OpeningStat {
	out := make([]OpeningStat, 0, len(book))
	for name, t := range book {
		if t.total < constants.MinOpeningGames {
			continue
		}
		out = append(out, OpeningStat{
			Name:             name,
			Count:            t.total,
			WinRate:          percent(t.wins, t.total),
			HighestWinRating: t.highestWin,
		})
	}
	return out
}

func mostPlayed(book map[string]*openingTally) []OpeningStat {
	out := qualifying(book)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return limit(out, constants.TopOpeningsLimit)
}

// worstPerforming orders by win rate ascending; on equal rates the opening
// with more games comes first.
func worstPerforming(book map[string]*openingTally) []OpeningStat {
	out := qualifying(book)
	sort.Slice(out, func(i, j int) bool {
		if out[i].WinRate != out[j].WinRate {
			return out[i].WinRate < out[j].WinRate
		}
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return limit(out, constants.TopOpeningsLimit)
}

func limit[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
