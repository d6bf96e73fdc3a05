// Package analysis turns a chronological list of games into the figures of a
// year in review. Every function is pure: it reads the shared game slice and
// never mutates it, so the passes can run in any order or concurrently.
package analysis

import (
	"math"
	"sort"
	"strings"
	"time"

	"chess-wrapped/internal/constants"
	"chess-wrapped/internal/domain"
	"chess-wrapped/internal/pgn"
)

type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type PieceCount struct {
	Piece string `json:"piece"`
	Count int    `json:"count"`
}

type GameLength struct {
	Moves     int    `json:"moves"`
	Opponent  string `json:"opponent"`
	URL       string `json:"url"`
	TimeClass string `json:"timeControl"`
	Result    string `json:"result"`
	EndTime   int64  `json:"endTime"`
}

type Upset struct {
	Opponent       string `json:"opponent"`
	OpponentRating int    `json:"opponentElo"`
	UserRating     int    `json:"userElo"`
	RatingGap      int    `json:"eloGap"`
	URL            string `json:"url"`
	EndTime        int64  `json:"endTime"`
}

type CastlingStats struct {
	Kingside  int `json:"kingside"`
	Queenside int `json:"queenside"`
	None      int `json:"none"`
}

type GeneralStats struct {
	TotalGames         int           `json:"totalGames"`
	TotalHours         int           `json:"totalHours"`
	Wins               int           `json:"wins"`
	Losses             int           `json:"losses"`
	Draws              int           `json:"draws"`
	WinRate            int           `json:"winRate"`
	GamesByVariant     []NameCount   `json:"gamesByVariant"`
	MostPlayedVariant  string        `json:"mostPlayedVariant"`
	LongestWinStreak   int           `json:"longestWinStreak"`
	LongestLossStreak  int           `json:"longestLossStreak"`
	LongestDailyStreak int           `json:"longestDailyStreak"`
	WinMethods         []NameCount   `json:"winMethods"`
	LossMethods        []NameCount   `json:"lossMethods"`
	DrawMethods        []NameCount   `json:"drawMethods"`
	CheckmateByPiece   []PieceCount  `json:"checkmateByPiece"`
	MatedByPiece       []PieceCount  `json:"matedByPiece"`
	Castling           CastlingStats `json:"castling"`
	LongestGame        *GameLength   `json:"longestGame,omitempty"`
	ShortestGame       *GameLength   `json:"shortestGame,omitempty"`
	FastestWin         *GameLength   `json:"fastestWin,omitempty"`
	BiggestUpset       *Upset        `json:"biggestUpset,omitempty"`
}

var drawResults = map[string]bool{
	"repetition":         true,
	"stalemate":          true,
	"insufficient":       true,
	"agreed":             true,
	"timevsinsufficient": true,
	"50move":             true,
}

// decisive results as seen from the analyzed user's side
var decisiveResults = map[string]bool{
	"win":        true,
	"checkmated": true,
	"resigned":   true,
	"timeout":    true,
}

func ResultLabel(result string) string {
	switch result {
	case "win":
		return "Win"
	case "checkmated":
		return "Checkmate"
	case "agreed":
		return "Agreement"
	case "repetition":
		return "Repetition"
	case "timeout":
		return "Timeout"
	case "resigned":
		return "Resignation"
	case "stalemate":
		return "Stalemate"
	case "insufficient":
		return "Insufficient Material"
	case "timevsinsufficient":
		return "Timeout vs Insufficient Material"
	case "50move":
		return "50 Move Rule"
	case "abandoned":
		return "Abandonment"
	case "kingofthehill":
		return "KOTH"
	case "threecheck":
		return "Three Check"
	case "bughouse":
		return "Bughouse"
	case "crazyhouse":
		return "Crazyhouse"
	default:
		return "Other"
	}
}

func IsDraw(result string) bool {
	return drawResults[result]
}

func General(games []domain.Game, username string) GeneralStats {
	var (
		stats        GeneralStats
		totalSeconds float64
		curWin       int
		curLoss      int
	)

	variants := map[string]int{}
	winMethods := map[string]int{}
	lossMethods := map[string]int{}
	drawMethods := map[string]int{}
	checkmates := map[string]int{}
	mated := map[string]int{}
	days := map[string]struct{}{}

	for _, g := range chronological(games) {
		user, opp, isWhite, ok := g.Side(username)
		if !ok {
			continue
		}
		stats.TotalGames++

		plies := pgn.Plies(g.PGN)
		moves := (len(plies) + 1) / 2

		switch {
		case user.Result == "win":
			stats.Wins++
			winMethods[ResultLabel(opp.Result)]++
			curWin++
			curLoss = 0
			stats.LongestWinStreak = max(stats.LongestWinStreak, curWin)
			if opp.Result == "checkmated" {
				if piece, ok := pgn.MatingPiece(plies); ok {
					checkmates[piece]++
				}
			}
		case IsDraw(user.Result):
			stats.Draws++
			drawMethods[ResultLabel(user.Result)]++
			curWin = 0
			curLoss = 0
		default:
			stats.Losses++
			lossMethods[ResultLabel(user.Result)]++
			curLoss++
			curWin = 0
			stats.LongestLossStreak = max(stats.LongestLossStreak, curLoss)
			if user.Result == "checkmated" {
				if piece, ok := pgn.MatingPiece(plies); ok {
					mated[piece]++
				}
			}
		}

		if g.EndTime > 0 {
			days[g.EndedAt().Format(time.DateOnly)] = struct{}{}
		}
		if d, ok := pgn.Duration(g.PGN); ok {
			totalSeconds += d.Seconds()
		}
		variants[variantName(g.TimeClass)]++

		switch pgn.CastlingSide(plies, isWhite) {
		case pgn.CastleKingside:
			stats.Castling.Kingside++
		case pgn.CastleQueenside:
			stats.Castling.Queenside++
		default:
			stats.Castling.None++
		}

		if moves == 0 {
			continue
		}
		length := GameLength{
			Moves:     moves,
			Opponent:  opp.Username,
			URL:       g.URL,
			TimeClass: g.TimeClass,
			Result:    user.Result,
			EndTime:   g.EndTime,
		}
		if stats.LongestGame == nil || moves > stats.LongestGame.Moves {
			l := length
			stats.LongestGame = &l
		}
		if decisiveResults[user.Result] && moves >= constants.MinDecisiveMoves &&
			(stats.ShortestGame == nil || moves < stats.ShortestGame.Moves) {
			l := length
			stats.ShortestGame = &l
		}
		if user.Result == "win" && moves >= constants.MinDecisiveMoves &&
			(stats.FastestWin == nil || moves < stats.FastestWin.Moves) {
			l := length
			stats.FastestWin = &l
		}
		if user.Result == "win" && opp.Rating > user.Rating {
			gap := opp.Rating - user.Rating
			if stats.BiggestUpset == nil || gap > stats.BiggestUpset.RatingGap {
				stats.BiggestUpset = &Upset{
					Opponent:       opp.Username,
					OpponentRating: opp.Rating,
					UserRating:     user.Rating,
					RatingGap:      gap,
					URL:            g.URL,
					EndTime:        g.EndTime,
				}
			}
		}
	}

	stats.TotalHours = int(math.Round(totalSeconds / 3600))
	stats.WinRate = percent(stats.Wins, stats.TotalGames)
	stats.LongestDailyStreak = longestDailyStreak(days)
	stats.GamesByVariant = sortedCounts(variants)
	stats.MostPlayedVariant = "Chess"
	if len(stats.GamesByVariant) > 0 {
		stats.MostPlayedVariant = stats.GamesByVariant[0].Name
	}
	stats.WinMethods = sortedCounts(winMethods)
	stats.LossMethods = sortedCounts(lossMethods)
	stats.DrawMethods = sortedCounts(drawMethods)
	stats.CheckmateByPiece = pieceCounts(checkmates)
	stats.MatedByPiece = pieceCounts(mated)

	return stats
}

func longestDailyStreak(days map[string]struct{}) int {
	dates := make([]time.Time, 0, len(days))
	for d := range days {
		t, err := time.Parse(time.DateOnly, d)
		if err != nil {
			continue
		}
		dates = append(dates, t)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	longest, run := 0, 0
	for i, d := range dates {
		if i > 0 && d.Sub(dates[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		longest = max(longest, run)
	}
	return longest
}

func variantName(timeClass string) string {
	if timeClass == "" {
		return "Other"
	}
	return strings.ToUpper(timeClass[:1]) + timeClass[1:]
}

// chronological returns a copy of games ordered by end time. Input from the
// fetch pipeline is already sorted; the copy keeps the caller's slice intact.
func chronological(games []domain.Game) []domain.Game {
	sorted := make([]domain.Game, len(games))
	copy(sorted, games)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].EndTime < sorted[j].EndTime })
	return sorted
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

func sortedCounts(m map[string]int) []NameCount {
	out := make([]NameCount, 0, len(m))
	for name, count := range m {
		out = append(out, NameCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func pieceCounts(m map[string]int) []PieceCount {
	counts := sortedCounts(m)
	out := make([]PieceCount, len(counts))
	for i, c := range counts {
		out[i] = PieceCount{Piece: c.Name, Count: c.Count}
	}
	return out
}
