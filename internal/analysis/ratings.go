package analysis

import (
	"strings"

	"chess-wrapped/internal/domain"
)

// RatedClasses are the competitive time controls with a rating history.
var RatedClasses = []string{"bullet", "blitz", "rapid"}

// MonthRating is the first rating seen per class in a calendar month. A nil
// class means no rated game of that class was played that month.
type MonthRating struct {
	Month      string `json:"date"`
	MonthIndex int    `json:"monthIndex"`
	Year       int    `json:"year"`
	Bullet     *int   `json:"Bullet"`
	Blitz      *int   `json:"Blitz"`
	Rapid      *int   `json:"Rapid"`
}

type RatingStats struct {
	History    []MonthRating  `json:"eloHistory"`
	Change     map[string]int `json:"eloChange"`
	Peak       map[string]int `json:"peakByClass"`
	Low        map[string]int `json:"lowByClass"`
	PeakRating int            `json:"peakElo"`
}

type classTracker struct {
	start, end, peak, low int
	seen                  bool
}

func (c *classTracker) observe(rating int) {
	if !c.seen {
		c.start, c.peak, c.low, c.seen = rating, rating, rating, true
	}
	c.end = rating
	c.peak = max(c.peak, rating)
	c.low = min(c.low, rating)
}

func Ratings(games []domain.Game, username string) RatingStats {
	trackers := map[string]*classTracker{}
	for _, class := range RatedClasses {
		trackers[class] = &classTracker{}
	}

	type monthKey struct{ year, month int }
	buckets := map[monthKey]*MonthRating{}
	var order []monthKey

	for _, g := range chronological(games) {
		if !g.Rated {
			continue
		}
		class := strings.ToLower(g.TimeClass)
		tracker, ok := trackers[class]
		if !ok {
			continue
		}
		user, _, _, ok := g.Side(username)
		if !ok || user.Rating <= 0 {
			continue
		}
		tracker.observe(user.Rating)

		ended := g.EndedAt()
		key := monthKey{ended.Year(), int(ended.Month())}
		bucket, ok := buckets[key]
		if !ok {
			bucket = &MonthRating{
				Month:      ended.Month().String()[:3],
				MonthIndex: int(ended.Month()) - 1,
				Year:       ended.Year(),
			}
			buckets[key] = bucket
			order = append(order, key)
		}
		slot := bucket.slot(class)
		if *slot == nil {
			rating := user.Rating
			*slot = &rating
		}
	}

	stats := RatingStats{
		History: make([]MonthRating, 0, len(order)),
		Change:  map[string]int{},
		Peak:    map[string]int{},
		Low:     map[string]int{},
	}
	for _, key := range order {
		stats.History = append(stats.History, *buckets[key])
	}
	for _, class := range RatedClasses {
		label := variantName(class)
		t := trackers[class]
		stats.Change[label] = t.end - t.start
		if !t.seen {
			continue
		}
		stats.Peak[label] = t.peak
		stats.Low[label] = t.low
		stats.PeakRating = max(stats.PeakRating, t.peak)
	}
	return stats
}

func (m *MonthRating) slot(class string) **int {
	switch class {
	case "bullet":
		return &m.Bullet
	case "blitz":
		return &m.Blitz
	default:
		return &m.Rapid
	}
}
