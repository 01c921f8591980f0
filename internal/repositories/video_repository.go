package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// ListVideosParams are the pagination and filter inputs for the video listing.
type ListVideosParams struct {
	Page     int
	Limit    int
	Query    string
	SortBy   string
	SortDesc bool
	OwnerID  string
}

// videoSortColumns whitelists the sortable fields; anything else falls back to views.
var videoSortColumns = map[string]string{
	"views":     "v.views",
	"duration":  "v.duration",
	"createdAt": "v.created_at",
	"title":     "v.title",
}

const videoWithOwnerColumns = `v.id, v.owner_id, v.title, v.description, v.video_file, v.thumbnail,
               v.duration, v.views, v.is_published, v.created_at, v.updated_at,
               u.full_name, u.username, u.avatar`

func videoWithOwnerDest(video *models.VideoWithOwner) []any {
	return []any{
		&video.ID, &video.OwnerID, &video.Title, &video.Description, &video.VideoFile,
		&video.Thumbnail, &video.Duration, &video.Views, &video.IsPublished,
		&video.CreatedAt, &video.UpdatedAt,
		&video.Owner.FullName, &video.Owner.Username, &video.Owner.Avatar,
	}
}

// List returns one page of published videos with the owner profile joined in.
// The text filter narrows the counted rows while ordering always derives from
// the sort column, matching the listing contract.
func (r *PostgresVideoRepository) List(ctx context.Context, params ListVideosParams) (models.VideoPage, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = 10
	}

	sortColumn, ok := videoSortColumns[params.SortBy]
	if !ok {
		sortColumn = videoSortColumns["views"]
	}
	direction := "ASC"
	if params.SortDesc {
		direction = "DESC"
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.VideoPage{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	query := `
        SELECT ` + videoWithOwnerColumns + `,
               COUNT(*) OVER () AS total_docs
        FROM videos v
        JOIN users u ON u.id = v.owner_id
        WHERE v.is_published
          AND ($1::text IS NULL OR v.owner_id = $1)
          AND (v.title ILIKE $2 OR v.description ILIKE $2)
        ORDER BY ` + sortColumn + ` ` + direction + `, v.id
        LIMIT $3 OFFSET $4`

	rows, err := conn.Query(ctx, query,
		nullText(params.OwnerID), containsPattern(params.Query),
		params.Limit, (params.Page-1)*params.Limit)
	if err != nil {
		return models.VideoPage{}, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	page := models.VideoPage{Page: params.Page, Limit: params.Limit}
	for rows.Next() {
		var video models.VideoWithOwner
		dest := videoWithOwnerDest(&video)
		dest = append(dest, &page.TotalDocs)
		if err := rows.Scan(dest...); err != nil {
			return models.VideoPage{}, fmt.Errorf("scan video: %w", err)
		}
		video.Owner.ID = video.OwnerID
		page.Docs = append(page.Docs, video)
	}

	if err := rows.Err(); err != nil {
		return models.VideoPage{}, fmt.Errorf("iterate videos: %w", err)
	}

	page.TotalPages = totalPages(page.TotalDocs, page.Limit)
	return page, nil
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, title, description, video_file, thumbnail, duration, views, is_published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, video.ID, video.OwnerID, video.Title, video.Description, video.VideoFile,
		video.Thumbnail, video.Duration, video.Views, video.IsPublished,
		video.CreatedAt, video.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// FindByID fetches a video without joins.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, owner_id, title, description, video_file, thumbnail, duration, views, is_published, created_at, updated_at
        FROM videos
        WHERE id = $1
    `, id)

	var video models.Video
	if err := row.Scan(&video.ID, &video.OwnerID, &video.Title, &video.Description,
		&video.VideoFile, &video.Thumbnail, &video.Duration, &video.Views,
		&video.IsPublished, &video.CreatedAt, &video.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}

	return video, nil
}

// FindWithOwner fetches one video with the owner profile joined in.
func (r *PostgresVideoRepository) FindWithOwner(ctx context.Context, id string) (models.VideoWithOwner, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.VideoWithOwner{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+videoWithOwnerColumns+`
        FROM videos v
        JOIN users u ON u.id = v.owner_id
        WHERE v.id = $1
    `, id)

	var video models.VideoWithOwner
	if err := row.Scan(videoWithOwnerDest(&video)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.VideoWithOwner{}, ErrNotFound
		}
		return models.VideoWithOwner{}, fmt.Errorf("select video with owner: %w", err)
	}
	video.Owner.ID = video.OwnerID

	return video, nil
}

// Update modifies the mutable video fields.
func (r *PostgresVideoRepository) Update(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET title = $2, description = $3, thumbnail = $4, updated_at = $5
        WHERE id = $1
    `, video.ID, video.Title, video.Description, video.Thumbnail, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a video; comments, likes, playlist entries and history rows
// cascade in the schema.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// TogglePublished flips the publish gate.
func (r *PostgresVideoRepository) TogglePublished(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos SET is_published = NOT is_published, updated_at = $2 WHERE id = $1
    `, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("toggle publish status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// IncrementViews bumps the monotonic view counter.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
