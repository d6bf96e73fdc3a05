package service

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"chess-wrapped/internal/api"
	"chess-wrapped/internal/domain"
)

// mapProfile fills the defaults for anything the records API left out. A nil
// response yields the fallback profile used when the lookup failed.
func mapProfile(username string, resp *api.ProfileResponse) domain.Profile {
	profile := domain.Profile{
		Username:  username,
		AvatarURL: domain.DefaultAvatarURL,
		Status:    domain.DefaultStatus,
	}
	if resp == nil {
		return profile
	}

	if name := usernameFromURL(resp.URL); name != "" {
		profile.Username = name
	} else if resp.Username != "" {
		profile.Username = resp.Username
	}
	if resp.Avatar != "" {
		profile.AvatarURL = resp.Avatar
	}
	if resp.Status != "" {
		profile.Status = resp.Status
	}
	profile.Joined = resp.Joined
	return profile
}

// usernameFromURL reads the display-cased name from a profile permalink such
// as https://www.chess.com/member/Hikaru.
func usernameFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	path := strings.TrimRight(u.Path, "/")
	i := strings.LastIndex(path, "/")
	if i < 0 || i == len(path)-1 {
		return ""
	}
	return path[i+1:]
}

func filterArchivesByYear(archives []string, year int) []string {
	marker := fmt.Sprintf("/%d/", year)
	var out []string
	for _, a := range archives {
		if strings.Contains(a, marker) {
			out = append(out, a)
		}
	}
	return out
}

// parseArchiveMonth reads year and month from the last two path segments of a
// monthly archive URL (.../games/2025/03).
func parseArchiveMonth(archiveURL string) (year, month int, ok bool) {
	parts := strings.Split(strings.Trim(archiveURL, "/"), "/")
	if len(parts) < 2 {
		return 0, 0, false
	}
	year, err := strconv.Atoi(parts[len(parts)-2])
	if err != nil || year < 1 {
		return 0, 0, false
	}
	month, err = strconv.Atoi(parts[len(parts)-1])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, month, true
}

func mapGames(records []api.GameRecord) []domain.Game {
	games := make([]domain.Game, 0, len(records))
	for _, r := range records {
		games = append(games, domain.Game{
			URL:         r.URL,
			PGN:         r.PGN,
			FEN:         r.FEN,
			TimeClass:   r.TimeClass,
			TimeControl: r.TimeControl,
			Rules:       r.Rules,
			Rated:       r.Rated,
			EndTime:     r.EndTime,
			White:       mapParticipant(r.White),
			Black:       mapParticipant(r.Black),
		})
	}
	return games
}

func mapParticipant(p api.PlayerRecord) domain.Participant {
	return domain.Participant{
		Username: p.Username,
		Rating:   p.Rating,
		Result:   p.Result,
	}
}
