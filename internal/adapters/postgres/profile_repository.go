package postgres

import (
	"context"
	"fmt"

	"github.com/feldboy/aparmenttool/internal/contextkeys"
	"github.com/feldboy/aparmenttool/internal/core/domain"
	"github.com/feldboy/aparmenttool/internal/core/port"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresProfileRepository реализует ProfileRepositoryPort для PostgreSQL.
// Критерии и настройки каналов хранятся в JSONB, pgx сканирует их напрямую
// в доменные структуры.
type PostgresProfileRepository struct {
	dbPool *pgxpool.Pool
}

func NewPostgresProfileRepository(dbPool *pgxpool.Pool) (*PostgresProfileRepository, error) {
	if dbPool == nil {
		return nil, fmt.Errorf("postgres profile repository: dbPool cannot be nil")
	}
	return &PostgresProfileRepository{dbPool: dbPool}, nil
}

// ListActiveProfiles возвращает все профили, подлежащие сканированию.
func (r *PostgresProfileRepository) ListActiveProfiles(ctx context.Context) ([]domain.SearchProfile, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "PostgresProfileRepository",
		"method":    "ListActiveProfiles",
	})

	query := `
        SELECT id, name, active, price, rooms, location,
               property_types, preferred_features, scan_targets, notification_channels
        FROM search_profiles
        WHERE active = TRUE
        ORDER BY created_at
    `

	rows, err := r.dbPool.Query(ctx, query)
	if err != nil {
		repoLogger.Error("Error querying active profiles", err, nil)
		return nil, fmt.Errorf("PostgresProfileRepo: error querying active profiles: %w", err)
	}
	defer rows.Close()

	var profiles []domain.SearchProfile
	for rows.Next() {
		var p domain.SearchProfile
		err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Active,
			&p.Price,
			&p.Rooms,
			&p.Location,
			&p.PropertyTypes,
			&p.PreferredFeatures,
			&p.Targets,
			&p.Channels,
		)
		if err != nil {
			repoLogger.Error("Error scanning profile row", err, nil)
			return nil, fmt.Errorf("PostgresProfileRepo: error scanning profile row: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("PostgresProfileRepo: error iterating profile rows: %w", err)
	}

	repoLogger.Debug("Loaded active profiles", port.Fields{"count": len(profiles)})
	return profiles, nil
}
