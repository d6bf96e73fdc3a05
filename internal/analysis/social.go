package analysis

import (
	"sort"
	"strings"

	"chess-wrapped/internal/constants"
	"chess-wrapped/internal/domain"
)

type FriendStat struct {
	Username  string `json:"username"`
	Games     int    `json:"games"`
	AvatarURL string `json:"avatarUrl"`
}

// Friends ranks opponents by number of games played against them.
func Friends(games []domain.Game, username string) []FriendStat {
	counts := map[string]*FriendStat{}

	for _, g := range games {
		_, opp, _, ok := g.Side(username)
		if !ok || strings.EqualFold(opp.Username, username) {
			continue
		}
		key := strings.ToLower(opp.Username)
		f, ok := counts[key]
		if !ok {
			f = &FriendStat{Username: opp.Username}
			counts[key] = f
		}
		f.Games++
	}

	out := make([]FriendStat, 0, len(counts))
	for _, f := range counts {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Games != out[j].Games {
			return out[i].Games > out[j].Games
		}
		return strings.ToLower(out[i].Username) < strings.ToLower(out[j].Username)
	})
	return limit(out, constants.TopFriendsLimit)
}
