package repositories

import (
	"context"
	"fmt"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for subscriptions.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Toggle applies the conditional create-or-delete for a subscription, keyed on
// the (subscriber, channel) uniqueness constraint. Each branch is one atomic
// statement. Returns true when the subscription was created, false when it was
// removed.
func (r *PostgresSubscriptionRepository) Toggle(ctx context.Context, sub models.Subscription) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (subscriber_id, channel_id) DO NOTHING
    `, sub.ID, sub.SubscriberID, sub.ChannelID, sub.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert subscription: %w", err)
	}

	if tag.RowsAffected() == 1 {
		return true, nil
	}

	_, err = conn.Exec(ctx, `
        DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2
    `, sub.SubscriberID, sub.ChannelID)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}

	return false, nil
}

// Subscribers lists the users subscribed to a channel, both sides denormalized.
func (r *PostgresSubscriptionRepository) Subscribers(ctx context.Context, channelID string) ([]models.SubscriptionEntry, error) {
	return r.listEntries(ctx, "s.channel_id", channelID)
}

// SubscribedTo lists the channels a user subscribes to, both sides denormalized.
func (r *PostgresSubscriptionRepository) SubscribedTo(ctx context.Context, subscriberID string) ([]models.SubscriptionEntry, error) {
	return r.listEntries(ctx, "s.subscriber_id", subscriberID)
}

func (r *PostgresSubscriptionRepository) listEntries(ctx context.Context, column, id string) ([]models.SubscriptionEntry, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT s.id,
               sub.id, sub.full_name, sub.username, sub.avatar,
               ch.id, ch.full_name, ch.username, ch.avatar
        FROM subscriptions s
        JOIN users sub ON sub.id = s.subscriber_id
        JOIN users ch ON ch.id = s.channel_id
        WHERE `+column+` = $1
        ORDER BY s.created_at DESC
    `, id)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	var entries []models.SubscriptionEntry
	for rows.Next() {
		var entry models.SubscriptionEntry
		if err := rows.Scan(&entry.ID,
			&entry.Subscriber.ID, &entry.Subscriber.FullName, &entry.Subscriber.Username, &entry.Subscriber.Avatar,
			&entry.Channel.ID, &entry.Channel.FullName, &entry.Channel.Username, &entry.Channel.Avatar); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}

	return entries, nil
}
