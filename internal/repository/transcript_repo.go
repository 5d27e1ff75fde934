package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ytscript-backend/internal/models"
)

var ErrNotFound = errors.New("record not found")

// ErrAlreadyFinished is returned when a terminal record would be updated.
var ErrAlreadyFinished = errors.New("transcript record already finished")

type TranscriptRepo struct {
	pool *pgxpool.Pool
}

func NewTranscriptRepo(pool *pgxpool.Pool) *TranscriptRepo {
	return &TranscriptRepo{pool: pool}
}

func (r *TranscriptRepo) Create(ctx context.Context, t *models.TranscriptRecord) error {
	t.ID = uuid.New()
	if t.Status == "" {
		t.Status = models.StatusProcessing
	}
	if t.Formats == nil {
		t.Formats = []string{}
	}

	query := `INSERT INTO transcripts (id, user_id, video_id, url, language, formats, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		t.ID, t.UserID, t.VideoID, t.URL, t.Language, t.Formats, t.Status,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
}

// Finish writes the terminal state of a PROCESSING record.
func (r *TranscriptRepo) Finish(ctx context.Context, t *models.TranscriptRecord) error {
	segments := []byte(t.SegmentsJSON)
	if len(segments) == 0 {
		segments = []byte("[]")
	}
	if t.Formats == nil {
		t.Formats = []string{}
	}

	query := `UPDATE transcripts SET
		title = $2, channel = $3, duration = $4, language = $5,
		transcript_text = $6, segments_json = $7, word_count = $8,
		formats = $9, status = $10, error_code = $11, updated_at = NOW()
		WHERE id = $1 AND status = 'PROCESSING'
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		t.ID, t.Title, t.Channel, t.Duration, t.Language,
		t.TranscriptText, segments, t.WordCount,
		t.Formats, t.Status, t.ErrorCode,
	).Scan(&t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrAlreadyFinished
	}
	return err
}

func (r *TranscriptRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.TranscriptRecord, error) {
	t := &models.TranscriptRecord{}
	query := `SELECT id, user_id, video_id, url, title, channel, duration, language,
		transcript_text, segments_json, word_count, formats, status, error_code, created_at, updated_at
		FROM transcripts WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.UserID, &t.VideoID, &t.URL, &t.Title, &t.Channel, &t.Duration, &t.Language,
		&t.TranscriptText, &t.SegmentsJSON, &t.WordCount, &t.Formats, &t.Status, &t.ErrorCode,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListByUser returns a page of a user's history without transcript bodies.
func (r *TranscriptRepo) ListByUser(ctx context.Context, userID uuid.UUID, search string, limit, offset int) ([]*models.TranscriptRecord, int, error) {
	var args []interface{}
	argIdx := 1

	where := fmt.Sprintf("WHERE user_id = $%d", argIdx)
	args = append(args, userID)
	argIdx++

	if search != "" {
		where += fmt.Sprintf(" AND (title ILIKE $%d OR channel ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+search+"%")
		argIdx++
	}

	// Count total
	var total int
	countQuery := "SELECT COUNT(*) FROM transcripts " + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT id, user_id, video_id, url, title, channel, duration, language,
		word_count, formats, status, error_code, created_at, updated_at
		FROM transcripts %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []*models.TranscriptRecord
	for rows.Next() {
		t := &models.TranscriptRecord{}
		err := rows.Scan(
			&t.ID, &t.UserID, &t.VideoID, &t.URL, &t.Title, &t.Channel, &t.Duration, &t.Language,
			&t.WordCount, &t.Formats, &t.Status, &t.ErrorCode, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, t)
	}
	return records, total, rows.Err()
}

func (r *TranscriptRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM transcripts WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
