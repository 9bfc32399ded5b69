package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/warp/project-engine/ledger"
)

// =============================================================================
// NOTIFICATION STORE (ledger.NotificationStore interface)
// =============================================================================

const notificationColumns = `id, user_id, title, message, type, related_id, related_type,
	priority, is_read, read_at, created_at`

func (c *conn) CreateNotification(ctx context.Context, n ledger.Notification) error {
	query := `INSERT INTO notifications (` + notificationColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := c.q.ExecContext(ctx, query,
		n.ID,
		n.UserID,
		n.Title,
		n.Message,
		string(n.Type),
		n.RelatedID,
		n.RelatedType,
		string(n.Priority),
		n.IsRead,
		nullTime(n.ReadAt),
		formatTime(n.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (c *conn) GetNotification(ctx context.Context, id string) (*ledger.Notification, error) {
	row := c.q.QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id)
	n, err := scanNotification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ListNotifications returns newest first.
func (c *conn) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]ledger.Notification, error) {
	var w where
	w.add("user_id = ?", userID)
	if unreadOnly {
		w.add("is_read = 0")
	}
	query := `SELECT ` + notificationColumns + ` FROM notifications` + w.String() + ` ORDER BY created_at DESC, id ASC`
	args := w.args
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	notifications := []ledger.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (c *conn) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := c.q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0",
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

func (c *conn) MarkNotificationRead(ctx context.Context, id string, at time.Time) error {
	_, err := c.q.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1, read_at = ? WHERE id = ? AND is_read = 0",
		formatTime(at), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (c *conn) MarkAllNotificationsRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	res, err := c.q.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1, read_at = ? WHERE user_id = ? AND is_read = 0",
		formatTime(at), userID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return res.RowsAffected()
}

func (c *conn) DeleteNotification(ctx context.Context, id string) error {
	if _, err := c.q.ExecContext(ctx, "DELETE FROM notifications WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}

func scanNotification(row rowScanner) (ledger.Notification, error) {
	var (
		n          ledger.Notification
		notifyType string
		priority   string
		readAt     sql.NullString
		createdAt  string
	)
	err := row.Scan(
		&n.ID, &n.UserID, &n.Title, &n.Message, &notifyType, &n.RelatedID, &n.RelatedType,
		&priority, &n.IsRead, &readAt, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return n, err
		}
		return n, fmt.Errorf("failed to scan notification: %w", err)
	}
	n.Type = ledger.NotificationType(notifyType)
	n.Priority = ledger.Priority(priority)
	n.ReadAt = parseNullTime(readAt)
	n.CreatedAt = parseTime(createdAt)
	return n, nil
}
