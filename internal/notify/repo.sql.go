package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velora-pos/velora/internal/shared"
)

// Repository persists notifications in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores one notification.
func (r *Repository) Insert(ctx context.Context, n Notification) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO notifications (user_id, sale_id, kind, message) VALUES ($1, $2, $3, $4) RETURNING id`,
		n.UserID, n.SaleID, n.Kind, n.Message,
	).Scan(&id)
	return id, err
}

// InsertMany stores one notification per user in a single batch.
func (r *Repository) InsertMany(ctx context.Context, userIDs []int64, n Notification) error {
	batch := &pgx.Batch{}
	for _, userID := range userIDs {
		batch.Queue(
			`INSERT INTO notifications (user_id, sale_id, kind, message) VALUES ($1, $2, $3, $4)`,
			userID, n.SaleID, n.Kind, n.Message,
		)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range userIDs {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// ListByUser returns a user's notifications, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]Notification, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, sale_id, kind, message, read, created_at FROM notifications WHERE user_id=$1 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.SaleID, &n.Kind, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// UnreadCount returns how many notifications the user has not read.
func (r *Repository) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id=$1 AND NOT read`, userID,
	).Scan(&count)
	return count, err
}

// Get returns one notification.
func (r *Repository) Get(ctx context.Context, id int64) (Notification, error) {
	var n Notification
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, sale_id, kind, message, read, created_at FROM notifications WHERE id=$1`, id,
	).Scan(&n.ID, &n.UserID, &n.SaleID, &n.Kind, &n.Message, &n.Read, &n.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Notification{}, fmt.Errorf("%w: notification %d", shared.ErrNotFound, id)
	}
	return n, err
}

// MarkRead flags one notification as read.
func (r *Repository) MarkRead(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET read=true WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: notification %d", shared.ErrNotFound, id)
	}
	return nil
}

// MarkAllRead flags every notification of a user as read.
func (r *Repository) MarkAllRead(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE notifications SET read=true WHERE user_id=$1 AND NOT read`, userID)
	return err
}
