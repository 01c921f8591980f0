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

// PostgresPlaylistRepository provides PostgreSQL-backed persistence for playlists.
type PostgresPlaylistRepository struct {
	pool db.Pool
}

// NewPostgresPlaylistRepository constructs a playlist repository backed by PostgreSQL.
func NewPostgresPlaylistRepository(pool db.Pool) *PostgresPlaylistRepository {
	return &PostgresPlaylistRepository{pool: pool}
}

// Create persists a new playlist.
func (r *PostgresPlaylistRepository) Create(ctx context.Context, playlist models.Playlist) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO playlists (id, owner_id, name, description, is_public, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, playlist.ID, playlist.OwnerID, playlist.Name, playlist.Description,
		playlist.IsPublic, playlist.CreatedAt, playlist.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("insert playlist: %w", err)
	}

	return nil
}

// FindByID fetches a playlist without joins.
func (r *PostgresPlaylistRepository) FindByID(ctx context.Context, id string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, owner_id, name, description, is_public, created_at, updated_at
        FROM playlists
        WHERE id = $1
    `, id)

	var playlist models.Playlist
	if err := row.Scan(&playlist.ID, &playlist.OwnerID, &playlist.Name, &playlist.Description,
		&playlist.IsPublic, &playlist.CreatedAt, &playlist.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Playlist{}, ErrNotFound
		}
		return models.Playlist{}, fmt.Errorf("select playlist: %w", err)
	}

	return playlist, nil
}

// FindWithVideos fetches one playlist with owner and videos denormalized.
func (r *PostgresPlaylistRepository) FindWithVideos(ctx context.Context, id string) (models.PlaylistWithVideos, error) {
	playlists, err := r.denormalize(ctx, `p.id = $1`, id)
	if err != nil {
		return models.PlaylistWithVideos{}, err
	}
	if len(playlists) == 0 {
		return models.PlaylistWithVideos{}, ErrNotFound
	}
	return playlists[0], nil
}

// ListForUser returns a user's playlists with owner and videos denormalized.
func (r *PostgresPlaylistRepository) ListForUser(ctx context.Context, ownerID string) ([]models.PlaylistWithVideos, error) {
	return r.denormalize(ctx, `p.owner_id = $1`, ownerID)
}

// denormalize fetches matching playlists, then batch-fetches their videos and
// merges in insertion order (the application-side join).
func (r *PostgresPlaylistRepository) denormalize(ctx context.Context, where, arg string) ([]models.PlaylistWithVideos, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT p.id, p.owner_id, p.name, p.description, p.is_public, p.created_at, p.updated_at,
               u.full_name, u.username, u.avatar
        FROM playlists p
        JOIN users u ON u.id = p.owner_id
        WHERE `+where+`
        ORDER BY p.created_at DESC
    `, arg)
	if err != nil {
		return nil, fmt.Errorf("query playlists: %w", err)
	}
	defer rows.Close()

	var (
		playlists []models.PlaylistWithVideos
		index     = make(map[string]int)
		ids       []string
	)
	for rows.Next() {
		var playlist models.PlaylistWithVideos
		if err := rows.Scan(&playlist.ID, &playlist.OwnerID, &playlist.Name, &playlist.Description,
			&playlist.IsPublic, &playlist.CreatedAt, &playlist.UpdatedAt,
			&playlist.Owner.FullName, &playlist.Owner.Username, &playlist.Owner.Avatar); err != nil {
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		playlist.Owner.ID = playlist.OwnerID
		playlist.Videos = []models.VideoWithOwner{}
		index[playlist.ID] = len(playlists)
		ids = append(ids, playlist.ID)
		playlists = append(playlists, playlist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}

	if len(playlists) == 0 {
		return playlists, nil
	}

	videoRows, err := conn.Query(ctx, `
        SELECT pv.playlist_id, `+videoWithOwnerColumns+`
        FROM playlist_videos pv
        JOIN videos v ON v.id = pv.video_id
        JOIN users u ON u.id = v.owner_id
        WHERE pv.playlist_id = ANY($1)
        ORDER BY pv.added_at, v.id
    `, ids)
	if err != nil {
		return nil, fmt.Errorf("query playlist videos: %w", err)
	}
	defer videoRows.Close()

	for videoRows.Next() {
		var (
			playlistID string
			video      models.VideoWithOwner
		)
		dest := append([]any{&playlistID}, videoWithOwnerDest(&video)...)
		if err := videoRows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan playlist video: %w", err)
		}
		video.Owner.ID = video.OwnerID
		i := index[playlistID]
		playlists[i].Videos = append(playlists[i].Videos, video)
	}
	if err := videoRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlist videos: %w", err)
	}

	for i := range playlists {
		playlists[i].TotalVideos = len(playlists[i].Videos)
	}

	return playlists, nil
}

// AddVideo inserts a playlist membership with set semantics: adding a video
// already present is a no-op.
func (r *PostgresPlaylistRepository) AddVideo(ctx context.Context, playlistID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO playlist_videos (playlist_id, video_id, added_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (playlist_id, video_id) DO NOTHING
    `, playlistID, videoID, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("add playlist video: %w", err)
	}

	return nil
}

// RemoveVideo deletes a playlist membership.
func (r *PostgresPlaylistRepository) RemoveVideo(ctx context.Context, playlistID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        DELETE FROM playlist_videos WHERE playlist_id = $1 AND video_id = $2
    `, playlistID, videoID)
	if err != nil {
		return fmt.Errorf("remove playlist video: %w", err)
	}

	return nil
}

// Update modifies the playlist name and description.
func (r *PostgresPlaylistRepository) Update(ctx context.Context, id, name, description string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE playlists SET name = $2, description = $3, updated_at = $4 WHERE id = $1
    `, id, name, description, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update playlist: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a playlist and its memberships (cascade).
func (r *PostgresPlaylistRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM playlists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// TogglePublic flips the playlist visibility gate.
func (r *PostgresPlaylistRepository) TogglePublic(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE playlists SET is_public = NOT is_public, updated_at = $2 WHERE id = $1
    `, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("toggle playlist visibility: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
