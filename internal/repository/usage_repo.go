package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"ytscript-backend/internal/models"
)

type UsageRepo struct {
	pool *pgxpool.Pool
}

func NewUsageRepo(pool *pgxpool.Pool) *UsageRepo {
	return &UsageRepo{pool: pool}
}

func (r *UsageRepo) Log(ctx context.Context, u *models.UsageLog) error {
	u.ID = uuid.New()
	if u.Formats == nil {
		u.Formats = []string{}
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO usage_logs (id, user_id, action, video_id, formats)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		u.ID, u.UserID, u.Action, u.VideoID, u.Formats,
	).Scan(&u.CreatedAt)
}

// CountSince counts a user's actions of one kind after a point in time.
func (r *UsageRepo) CountSince(ctx context.Context, userID uuid.UUID, action string, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM usage_logs WHERE user_id = $1 AND action = $2 AND created_at >= $3",
		userID, action, since,
	).Scan(&n)
	return n, err
}
