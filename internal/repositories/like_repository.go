package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// likeToggleAttempts bounds the insert/delete retry loop in Toggle.
const likeToggleAttempts = 3

// Toggle applies the conditional create-or-delete for a like. Exactly one of
// the target fields on the like must be set. The insert and delete are each a
// single atomic statement keyed on the partial unique index, so concurrent
// toggles can never leave duplicate rows. Returns true when the like was
// created, false when an existing like was removed. A toggle that neither
// inserts nor deletes lost both races to a concurrent toggle and retries.
func (r *PostgresLikeRepository) Toggle(ctx context.Context, like models.Like) (bool, error) {
	targetColumn, targetID, err := likeTarget(like)
	if err != nil {
		return false, err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	for attempt := 0; attempt < likeToggleAttempts; attempt++ {
		tag, err := conn.Exec(ctx, `
        INSERT INTO likes (id, liked_by, video_id, comment_id, tweet_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT DO NOTHING
    `, like.ID, like.LikedBy, nullText(like.VideoID), nullText(like.CommentID),
			nullText(like.TweetID), like.CreatedAt)
		if err != nil {
			return false, fmt.Errorf("insert like: %w", err)
		}
		if tag.RowsAffected() == 1 {
			return true, nil
		}

		tag, err = conn.Exec(ctx, `
        DELETE FROM likes WHERE liked_by = $1 AND `+targetColumn+` = $2
    `, like.LikedBy, targetID)
		if err != nil {
			return false, fmt.Errorf("delete like: %w", err)
		}
		if tag.RowsAffected() == 1 {
			return false, nil
		}
	}

	return false, fmt.Errorf("toggle like: contention exceeded %d attempts", likeToggleAttempts)
}

// Exists reports whether a like row is present for the (actor, target) pair.
func (r *PostgresLikeRepository) Exists(ctx context.Context, like models.Like) (bool, error) {
	targetColumn, targetID, err := likeTarget(like)
	if err != nil {
		return false, err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	row := conn.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM likes WHERE liked_by = $1 AND `+targetColumn+` = $2)
    `, like.LikedBy, targetID)
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}

	return exists, nil
}

// LikedVideos lists the videos a user has liked, most recent like first, with
// the video owner joined in.
func (r *PostgresLikeRepository) LikedVideos(ctx context.Context, userID string) ([]models.VideoWithOwner, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoWithOwnerColumns+`
        FROM likes l
        JOIN videos v ON v.id = l.video_id
        JOIN users u ON u.id = v.owner_id
        WHERE l.liked_by = $1 AND l.video_id IS NOT NULL
        ORDER BY l.created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query liked videos: %w", err)
	}
	defer rows.Close()

	var videos []models.VideoWithOwner
	for rows.Next() {
		var video models.VideoWithOwner
		if err := rows.Scan(videoWithOwnerDest(&video)...); err != nil {
			return nil, fmt.Errorf("scan liked video: %w", err)
		}
		video.Owner.ID = video.OwnerID
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liked videos: %w", err)
	}

	return videos, nil
}

func likeTarget(like models.Like) (column, id string, err error) {
	targets := 0
	if like.VideoID != "" {
		column, id = "video_id", like.VideoID
		targets++
	}
	if like.CommentID != "" {
		column, id = "comment_id", like.CommentID
		targets++
	}
	if like.TweetID != "" {
		column, id = "tweet_id", like.TweetID
		targets++
	}
	if targets != 1 {
		return "", "", errors.New("like must reference exactly one target")
	}
	return column, id, nil
}
