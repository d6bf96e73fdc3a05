package analysis

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"chess-wrapped/internal/domain"
)

const longGame = "1. e4 e5 2. Nf3 Nc6 3. Bb5 a6 4. Ba4 Nf6 5. O-O Be7 6. Re1 b5 1-0"

const startFEN = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"

func TestHighlights(t *testing.T) {
	win := func(url, opp string, oppRating, day int, moves string) domain.Game {
		return domain.Game{
			URL:       url,
			TimeClass: "blitz",
			EndTime:   at(day),
			PGN:       moves,
			FEN:       startFEN,
			White:     p(me, 1500, "win"),
			Black:     p(opp, oppRating, "resigned"),
		}
	}

	games := []domain.Game{
		win("u1", "strong", 1800, 0, longGame),
		win("u1", "strong", 1800, 0, longGame),
		win("u2", "martin-BOT", 2500, 1, longGame),
		win("u3", "quick", 2400, 2, "1. e4 e5 2. Qh5 Nc6 3. Bc4 Nf6 4. Qxf7# 1-0"),
		win("u4", "weaker", 1400, 3, longGame),
		win("u5", "peer", 1600, 4, longGame),
		win("u6", "peer2", 1600, 5, longGame),
		win("u7", "solid", 1700, 6, longGame),
		win("u8", "even", 1500, 7, longGame),
		{
			URL:   "u9",
			PGN:   longGame,
			White: p(me, 1500, "resigned"),
			Black: p("titan", 2700, "win"),
		},
	}
	games[8].FEN = "not a fen"

	got := Highlights(games, me)

	var urls []string
	for _, m := range got {
		urls = append(urls, m.URL)
	}
	if diff := cmp.Diff([]string{"u1", "u7", "u5", "u6", "u8"}, urls); diff != "" {
		t.Fatalf("highlight order (-want +got):\n%s", diff)
	}
	first := got[0]
	if first.RatingGap != 300 || first.OpponentRating != 1800 || first.Date != "2025-03-10" || first.FEN != startFEN {
		t.Errorf("first highlight = %+v", first)
	}
	if got[4].FEN != "" {
		t.Errorf("invalid FEN passed through: %q", got[4].FEN)
	}
}
