package db

import (
	"context"
	"time"
)

type GameArchive struct {
	ID        string
	Username  string
	Year      int64
	Month     int64
	Games     string
	GameCount int64
	UpdatedAt time.Time
}

const getGameArchive = `-- name: GetGameArchive :one
SELECT id, username, year, month, games, game_count, updated_at
FROM game_archives
WHERE username = ? AND year = ? AND month = ?
`

type GetGameArchiveParams struct {
	Username string
	Year     int64
	Month    int64
}

func (q *Queries) GetGameArchive(ctx context.Context, arg GetGameArchiveParams) (GameArchive, error) {
	row := q.db.QueryRowContext(ctx, getGameArchive, arg.Username, arg.Year, arg.Month)
	var i GameArchive
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.Year,
		&i.Month,
		&i.Games,
		&i.GameCount,
		&i.UpdatedAt,
	)
	return i, err
}

const upsertGameArchive = `-- name: UpsertGameArchive :exec
INSERT INTO game_archives (id, username, year, month, games, game_count, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (username, year, month) DO UPDATE SET
    games = excluded.games,
    game_count = excluded.game_count,
    updated_at = excluded.updated_at
`

type UpsertGameArchiveParams struct {
	ID        string
	Username  string
	Year      int64
	Month     int64
	Games     string
	GameCount int64
	UpdatedAt time.Time
}

func (q *Queries) UpsertGameArchive(ctx context.Context, arg UpsertGameArchiveParams) error {
	_, err := q.db.ExecContext(ctx, upsertGameArchive,
		arg.ID,
		arg.Username,
		arg.Year,
		arg.Month,
		arg.Games,
		arg.GameCount,
		arg.UpdatedAt,
	)
	return err
}
