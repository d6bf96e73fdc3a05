// Package pgn pulls tags, opening names and coarse move lists out of raw PGN
// text. It never plays moves out; every helper is best-effort pattern
// matching and answers with a sentinel instead of failing.
package pgn

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

const UnknownOpening = "Unknown"

const maxGameDuration = 6 * time.Hour

// Tag returns the value of the first [Name "value"] pair. It is a plain
// substring scan so month-sized inputs stay linear.
func Tag(pgn, name string) (string, bool) {
	key := "[" + name + ` "`
	start := strings.Index(pgn, key)
	if start == -1 {
		return "", false
	}
	valueStart := start + len(key)
	end := strings.Index(pgn[valueStart:], `"]`)
	if end == -1 {
		return "", false
	}
	return pgn[valueStart : valueStart+end], true
}

var (
	// trailing "-4.d3-Be7-5.O-O" or "-1-e4" move groups in an ECO url slug
	slugMoves = regexp.MustCompile(`-\d+(?:\.+-?|-).*$`)

	variationWord = regexp.MustCompile(`\bVariation\b`)
	withWord      = regexp.MustCompile(`\bwith\b`)
	numberedMove  = regexp.MustCompile(`^\d+[.\-]`)
	ellipsisMove  = regexp.MustCompile(`^\.{2,}`)
	sanMove       = regexp.MustCompile(`^(?:O(?:-O){0,2}|0-0(?:-0)?|[KQRBN]?[a-h]?[1-8]?x?[a-h][1-8](?:=[QRBN])?)[+#!?]*$`)
)

// Opening derives a display name for the opening of a game, preferring the
// ECOUrl tag over the free-text Opening tag. It returns UnknownOpening when
// neither yields anything usable.
func Opening(pgn string) string {
	if ecoURL, ok := Tag(pgn, "ECOUrl"); ok && strings.TrimSpace(ecoURL) != "" {
		if name := openingFromSlug(ecoURL); name != UnknownOpening {
			return name
		}
	}

	name, ok := Tag(pgn, "Opening")
	if !ok || IsPlaceholder(name) {
		return UnknownOpening
	}
	return NormalizeOpening(name)
}

// IsPlaceholder reports whether an opening name must be excluded from
// opening statistics.
func IsPlaceholder(name string) bool {
	name = strings.TrimSpace(name)
	return name == "" || name == UnknownOpening || name == "undefined" || strings.HasPrefix(name, "?")
}

func openingFromSlug(raw string) string {
	slug := raw
	if i := strings.IndexAny(slug, "?#"); i != -1 {
		slug = slug[:i]
	}
	slug = strings.TrimRight(slug, "/")
	if i := strings.LastIndex(slug, "/"); i != -1 {
		slug = slug[i+1:]
	}
	slug = slugMoves.ReplaceAllString(slug, "")
	if decoded, err := url.PathUnescape(slug); err == nil {
		slug = decoded
	}
	return NormalizeOpening(strings.ReplaceAll(slug, "-", " "))
}

// NormalizeOpening strips move sequences and filler words from an opening
// name. NormalizeOpening(NormalizeOpening(s)) == NormalizeOpening(s).
func NormalizeOpening(name string) string {
	name = variationWord.ReplaceAllString(name, " ")
	if loc := withWord.FindStringIndex(name); loc != nil {
		name = name[:loc[0]]
	}
	name = strings.NewReplacer(":", " ", ",", " ").Replace(name)

	var kept []string
	for _, tok := range strings.Fields(name) {
		if numberedMove.MatchString(tok) || ellipsisMove.MatchString(tok) || sanMove.MatchString(tok) {
			continue
		}
		kept = append(kept, tok)
	}
	if len(kept) == 0 {
		return UnknownOpening
	}
	return strings.Join(kept, " ")
}

var (
	tagPair     = regexp.MustCompile(`\[[A-Za-z0-9_]+\s+"[^"]*"\]`)
	comment     = regexp.MustCompile(`\{[^}]*\}`)
	annotation  = regexp.MustCompile(`\$\d+`)
	moveNumber  = regexp.MustCompile(`\d+\.(?:\.\.)?`)
	resultToken = map[string]bool{"1-0": true, "0-1": true, "1/2-1/2": true, "*": true}
)

// Plies returns the move tokens of the main line in order. Malformed input
// yields fewer tokens, never an error.
func Plies(pgn string) []string {
	body := tagPair.ReplaceAllString(pgn, " ")
	body = comment.ReplaceAllString(body, " ")
	body = stripVariations(body)
	body = annotation.ReplaceAllString(body, " ")
	body = moveNumber.ReplaceAllString(body, " ")

	plies := strings.Fields(body)
	if n := len(plies); n > 0 && resultToken[plies[n-1]] {
		plies = plies[:n-1]
	}
	return plies
}

// stripVariations replaces every balanced parenthesised group, nested ones
// included, with a single space. Unbalanced parentheses are left in place.
func stripVariations(body string) string {
	out := make([]byte, 0, len(body))
	var open []int
	for i := 0; i < len(body); i++ {
		switch c := body[i]; {
		case c == '(':
			open = append(open, len(out))
			out = append(out, c)
		case c == ')' && len(open) > 0:
			out = append(out[:open[len(open)-1]], ' ')
			open = open[:len(open)-1]
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

// CountMoves returns the number of full moves, rounding a trailing white
// ply up.
func CountMoves(pgn string) int {
	return (len(Plies(pgn)) + 1) / 2
}

// MatingPiece names the piece that delivered mate in the last ply marked
// with '#'. Castling mates are credited to the rook.
func MatingPiece(plies []string) (string, bool) {
	for i := len(plies) - 1; i >= 0; i-- {
		if strings.Contains(plies[i], "#") {
			return pieceName(plies[i]), true
		}
	}
	return "", false
}

func pieceName(move string) string {
	clean := strings.NewReplacer("+", "", "#", "", "x", "").Replace(move)
	switch {
	case strings.HasPrefix(clean, "N"):
		return "Knight"
	case strings.HasPrefix(clean, "B"):
		return "Bishop"
	case strings.HasPrefix(clean, "R"):
		return "Rook"
	case strings.HasPrefix(clean, "Q"):
		return "Queen"
	case strings.HasPrefix(clean, "K"):
		return "King"
	case strings.HasPrefix(clean, "O"), strings.HasPrefix(clean, "0"):
		return "Rook"
	default:
		return "Pawn"
	}
}

const (
	CastleKingside  = "kingside"
	CastleQueenside = "queenside"
	CastleNone      = "none"
)

// CastlingSide reports how one side castled, looking only at that side's
// plies (even indexes for white, odd for black).
func CastlingSide(plies []string, white bool) string {
	for i, p := range plies {
		if (i%2 == 0) != white {
			continue
		}
		switch strings.TrimRight(p, "+#!?") {
		case "O-O-O", "0-0-0":
			return CastleQueenside
		case "O-O", "0-0":
			return CastleKingside
		}
	}
	return CastleNone
}

// Duration computes wall-clock game length from the Date, StartTime and
// EndTime tags. Games crossing midnight wrap around; lengths of six hours or
// more are treated as bad clock data.
func Duration(pgn string) (time.Duration, bool) {
	date, ok := Tag(pgn, "Date")
	if !ok {
		return 0, false
	}
	startTag, ok := Tag(pgn, "StartTime")
	if !ok {
		return 0, false
	}
	endTag, ok := Tag(pgn, "EndTime")
	if !ok {
		return 0, false
	}

	date = strings.ReplaceAll(date, ".", "-")
	start, err := time.Parse("2006-01-02T15:04:05", date+"T"+startTag)
	if err != nil {
		return 0, false
	}
	end, err := time.Parse("2006-01-02T15:04:05", date+"T"+endTag)
	if err != nil {
		return 0, false
	}

	diff := end.Sub(start)
	if diff < 0 {
		diff += 24 * time.Hour
	}
	if diff <= 0 || diff >= maxGameDuration {
		return 0, false
	}
	return diff, true
}
