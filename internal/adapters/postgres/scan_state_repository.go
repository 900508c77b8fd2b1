package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/feldboy/aparmenttool/internal/contextkeys"
	"github.com/feldboy/aparmenttool/internal/core/domain"
	"github.com/feldboy/aparmenttool/internal/core/port"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresScanStateRepository реализует ScanStatePort для PostgreSQL
type PostgresScanStateRepository struct {
	dbPool *pgxpool.Pool
}

// NewPostgresScanStateRepository создает новый экземпляр PostgresScanStateRepository
func NewPostgresScanStateRepository(dbPool *pgxpool.Pool) (*PostgresScanStateRepository, error) {
	if dbPool == nil {
		return nil, fmt.Errorf("postgres scan state repository: dbPool cannot be nil")
	}
	return &PostgresScanStateRepository{dbPool: dbPool}, nil
}

// GetCursor извлекает отметку последнего обработанного объявления для пары
// (профиль, источник). Отсутствие строки - нулевое время, не ошибка.
func (r *PostgresScanStateRepository) GetCursor(ctx context.Context, profileID uuid.UUID, source domain.Source) (time.Time, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "PostgresScanStateRepository",
		"method":    "GetCursor",
	})

	var cursor time.Time
	query := `SELECT last_listing_at FROM scan_cursors WHERE profile_id = $1 AND source = $2`

	err := r.dbPool.QueryRow(ctx, query, profileID, string(source)).Scan(&cursor)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			repoLogger.Debug("No scan cursor found, pair was never scanned", port.Fields{
				"profile_id": profileID.String(),
				"source":     string(source),
			})
			return time.Time{}, nil
		}

		repoLogger.Error("Error getting scan cursor", err, port.Fields{"profile_id": profileID.String()})
		return time.Time{}, fmt.Errorf("PostgresScanStateRepo: error querying cursor for profile '%s' source '%s': %w", profileID, source, err)
	}

	return cursor, nil
}

// AdvanceCursor двигает курсор вперед. GREATEST в UPDATE гарантирует,
// что курсор никогда не откатывается назад.
func (r *PostgresScanStateRepository) AdvanceCursor(ctx context.Context, profileID uuid.UUID, source domain.Source, to time.Time) error {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "PostgresScanStateRepository",
		"method":    "AdvanceCursor",
	})

	// Используем ON CONFLICT (UPSERT) - атомарно и без гонок между циклами.
	query := `
        INSERT INTO scan_cursors (profile_id, source, last_listing_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (profile_id, source)
        DO UPDATE SET last_listing_at = GREATEST(scan_cursors.last_listing_at, EXCLUDED.last_listing_at)
    `

	_, err := r.dbPool.Exec(ctx, query, profileID, string(source), to)
	if err != nil {
		repoLogger.Error("Error advancing scan cursor", err, port.Fields{"profile_id": profileID.String()})
		return fmt.Errorf("PostgresScanStateRepo: error advancing cursor for profile '%s' source '%s': %w", profileID, source, err)
	}

	repoLogger.Debug("Scan cursor advanced", port.Fields{
		"profile_id": profileID.String(),
		"source":     string(source),
		"to":         to,
	})
	return nil
}
