package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/valyala/fasthttp"

	"chess-wrapped/internal/config"
	"chess-wrapped/internal/constants"
	"chess-wrapped/internal/metrics"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrRateLimited      = errors.New("rate limited")
	ErrMissingUserAgent = errors.New("records API requires a contact user agent")
)

type ChessClient struct {
	baseURL   string
	userAgent string
	client    *fasthttp.Client
	cb        *gobreaker.CircuitBreaker[[]byte]
	logger    zerolog.Logger
}

func NewChessClient(cfg *config.Config, logger zerolog.Logger) (*ChessClient, error) {
	if strings.TrimSpace(cfg.ChessAPIUserAgent) == "" {
		return nil, ErrMissingUserAgent
	}

	c := &ChessClient{
		baseURL:   strings.TrimRight(cfg.ChessAPIBaseURL, "/"),
		userAgent: cfg.ChessAPIUserAgent,
		client: &fasthttp.Client{
			MaxConnsPerHost:     constants.AvatarBatchSize * 2,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
			// month archives for active players run to several MB
			MaxResponseBodySize: 64 << 20,
		},
		logger: logger,
	}

	name := "chess-records-api"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	c.cb = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// a missing player is an answer, not an outage
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return c, nil
}

func (c *ChessClient) GetProfile(ctx context.Context, username string) (*ProfileResponse, error) {
	u := fmt.Sprintf("%s/player/%s", c.baseURL, url.PathEscape(strings.ToLower(username)))
	return doRequest[ProfileResponse](ctx, c, "profile", u)
}

func (c *ChessClient) GetArchives(ctx context.Context, username string) (*ArchivesResponse, error) {
	u := fmt.Sprintf("%s/player/%s/games/archives", c.baseURL, url.PathEscape(strings.ToLower(username)))
	return doRequest[ArchivesResponse](ctx, c, "archives", u)
}

// GetMonthGames loads one monthly archive. archiveURL is normally absolute, as
// returned by GetArchives; a bare path is resolved against the base URL.
func (c *ChessClient) GetMonthGames(ctx context.Context, archiveURL string) (*MonthGamesResponse, error) {
	u := archiveURL
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = c.baseURL + "/" + strings.TrimLeft(u, "/")
	}
	return doRequest[MonthGamesResponse](ctx, c, "month", u)
}

func doRequest[T any](ctx context.Context, client *ChessClient, endpoint, url string) (*T, error) {
	body, err := client.cb.Execute(func() ([]byte, error) {
		return client.get(ctx, url)
	})
	if err != nil {
		metrics.RecordsAPIRequests.WithLabelValues(endpoint, outcome(err)).Inc()
		return nil, err
	}
	metrics.RecordsAPIRequests.WithLabelValues(endpoint, "ok").Inc()

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return &result, nil
}

func (c *ChessClient) get(ctx context.Context, url string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := c.client.DoTimeout(req, resp, constants.ExternalAPITimeout); err != nil {
			return nil, err
		}
	}

	switch resp.StatusCode() {
	case fasthttp.StatusOK:
	case fasthttp.StatusNotFound, fasthttp.StatusGone:
		return nil, fmt.Errorf("API error %d: %w", resp.StatusCode(), ErrNotFound)
	case fasthttp.StatusTooManyRequests:
		return nil, fmt.Errorf("API error %d: %w", resp.StatusCode(), ErrRateLimited)
	default:
		return nil, fmt.Errorf("API error: %d", resp.StatusCode())
	}

	// resp is recycled on return
	return append([]byte(nil), resp.Body()...), nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "rejected"
	default:
		return "error"
	}
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

type ProfileResponse struct {
	Avatar     string `json:"avatar"`
	PlayerID   int64  `json:"player_id"`
	ID         string `json:"@id"`
	URL        string `json:"url"`
	Name       string `json:"name"`
	Username   string `json:"username"`
	Followers  int    `json:"followers"`
	Country    string `json:"country"`
	LastOnline int64  `json:"last_online"`
	Joined     int64  `json:"joined"`
	Status     string `json:"status"`
	IsStreamer bool   `json:"is_streamer"`
	Verified   bool   `json:"verified"`
	League     string `json:"league"`
}

type ArchivesResponse struct {
	Archives []string `json:"archives"`
}

type MonthGamesResponse struct {
	Games []GameRecord `json:"games"`
}

type GameRecord struct {
	URL          string       `json:"url"`
	PGN          string       `json:"pgn"`
	TimeControl  string       `json:"time_control"`
	EndTime      int64        `json:"end_time"`
	Rated        bool         `json:"rated"`
	TCN          string       `json:"tcn"`
	UUID         string       `json:"uuid"`
	InitialSetup string       `json:"initial_setup"`
	FEN          string       `json:"fen"`
	TimeClass    string       `json:"time_class"`
	Rules        string       `json:"rules"`
	ECO          string       `json:"eco"`
	White        PlayerRecord `json:"white"`
	Black        PlayerRecord `json:"black"`
}

type PlayerRecord struct {
	Rating   int    `json:"rating"`
	Result   string `json:"result"`
	ID       string `json:"@id"`
	Username string `json:"username"`
	UUID     string `json:"uuid"`
}
