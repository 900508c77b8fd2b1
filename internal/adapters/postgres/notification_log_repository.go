package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/feldboy/aparmenttool/internal/contextkeys"
	"github.com/feldboy/aparmenttool/internal/core/domain"
	"github.com/feldboy/aparmenttool/internal/core/port"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresNotificationLogRepository реализует NotificationLogPort.
// Частичный уникальный индекс по (profile_id, listing_id, channel) WHERE
// success не дает записать вторую успешную доставку по той же тройке.
type PostgresNotificationLogRepository struct {
	dbPool *pgxpool.Pool
}

func NewPostgresNotificationLogRepository(dbPool *pgxpool.Pool) (*PostgresNotificationLogRepository, error) {
	if dbPool == nil {
		return nil, fmt.Errorf("postgres notification log repository: dbPool cannot be nil")
	}
	return &PostgresNotificationLogRepository{dbPool: dbPool}, nil
}

// Append добавляет запись в журнал. Гонка двух циклов по одной тройке
// разрешается уникальным индексом, нарушение не считается ошибкой.
func (r *PostgresNotificationLogRepository) Append(ctx context.Context, n domain.SentNotification) error {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "PostgresNotificationLogRepository",
		"method":    "Append",
	})

	query := `
        INSERT INTO sent_notifications (profile_id, listing_id, channel, recipient, success, message_id, error_message, sent_at)
        VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8)
    `

	_, err := r.dbPool.Exec(ctx, query,
		n.ProfileID,
		n.ListingID,
		string(n.Channel),
		n.Recipient,
		n.Success,
		n.MessageID,
		n.ErrorMessage,
		n.SentAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			repoLogger.Warn("Duplicate notification log entry, another cycle already delivered", port.Fields{
				"profile_id": n.ProfileID.String(),
				"listing_id": n.ListingID,
				"channel":    string(n.Channel),
			})
			return nil
		}
		repoLogger.Error("Error appending notification log entry", err, port.Fields{"listing_id": n.ListingID})
		return fmt.Errorf("PostgresNotificationLogRepo: error appending entry for listing '%s': %w", n.ListingID, err)
	}

	return nil
}

// WasSent сообщает, была ли уже успешная доставка по тройке.
func (r *PostgresNotificationLogRepository) WasSent(ctx context.Context, profileID uuid.UUID, listingID string, channel domain.Channel) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM sent_notifications
            WHERE profile_id = $1 AND listing_id = $2 AND channel = $3 AND success = TRUE
        )
    `
	var exists bool
	err := r.dbPool.QueryRow(ctx, query, profileID, listingID, string(channel)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("PostgresNotificationLogRepo: error checking sent status for listing '%s': %w", listingID, err)
	}
	return exists, nil
}
