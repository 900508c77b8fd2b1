package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/feldboy/aparmenttool/internal/contextkeys"
	"github.com/feldboy/aparmenttool/internal/core/domain"
	"github.com/feldboy/aparmenttool/internal/core/port"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Срок жизни ключей в быстром кэше. Дольше держать смысла нет:
// постоянный индекс все равно остановит дубликат.
const seenCacheTTL = 48 * time.Hour

// PostgresDedupIndexRepository реализует DedupIndexPort поверх таблицы
// scanned_listings с двумя уникальными ограничениями: (source, native_id)
// и content_hash. Перед базой опционально стоит быстрый кэш.
type PostgresDedupIndexRepository struct {
	dbPool    *pgxpool.Pool
	seenCache port.SeenCachePort // может быть nil
}

func NewPostgresDedupIndexRepository(dbPool *pgxpool.Pool, seenCache port.SeenCachePort) (*PostgresDedupIndexRepository, error) {
	if dbPool == nil {
		return nil, fmt.Errorf("postgres dedup index repository: dbPool cannot be nil")
	}
	return &PostgresDedupIndexRepository{dbPool: dbPool, seenCache: seenCache}, nil
}

// CheckAndInsert атомарно регистрирует объявление. Вся проверка - один
// INSERT: ON CONFLICT DO NOTHING по любому из уникальных ограничений
// вернет RowsAffected = 0, значит дубликат.
func (r *PostgresDedupIndexRepository) CheckAndInsert(ctx context.Context, listing domain.ScannedListing) (bool, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "PostgresDedupIndexRepository",
		"method":    "CheckAndInsert",
	})

	cacheKeys := []string{
		fmt.Sprintf("seen:%s:%s", listing.Source, listing.NativeID),
		fmt.Sprintf("seenhash:%s", listing.ContentHash),
	}
	if r.seenCache != nil {
		seen, err := r.seenCache.Seen(ctx, cacheKeys)
		if err != nil {
			// Кэш - только ускоритель, при сбое идем в базу
			repoLogger.Warn("Seen cache unavailable, falling back to database", port.Fields{"error": err.Error()})
		} else if seen {
			return false, nil
		}
	}

	query := `
        INSERT INTO scanned_listings (source, native_id, content_hash, image_hash, url, first_seen)
        VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
        ON CONFLICT DO NOTHING
    `

	tag, err := r.dbPool.Exec(ctx, query,
		string(listing.Source),
		listing.NativeID,
		listing.ContentHash,
		listing.ImageHash,
		listing.URL,
		listing.FirstSeen,
	)
	if err != nil {
		repoLogger.Error("Error inserting scanned listing", err, port.Fields{
			"source":    string(listing.Source),
			"native_id": listing.NativeID,
		})
		return false, fmt.Errorf("PostgresDedupIndexRepo: error inserting listing '%s:%s': %w", listing.Source, listing.NativeID, err)
	}

	// Кэш помечается только после того, как INSERT отработал: иначе сбой
	// базы оставил бы ключи помеченными, а объявление - потерянным.
	if r.seenCache != nil {
		if err := r.seenCache.Mark(ctx, cacheKeys, seenCacheTTL); err != nil {
			repoLogger.Warn("Failed to mark seen cache", port.Fields{"error": err.Error()})
		}
	}

	if tag.RowsAffected() == 0 {
		repoLogger.Debug("Listing already known, skipping", port.Fields{
			"source":    string(listing.Source),
			"native_id": listing.NativeID,
		})
		return false, nil
	}

	// Точное совпадение перцептивного хэша картинки ловит кросс-посты,
	// у которых переписан текст, но оставлено то же фото.
	if listing.ImageHash != "" {
		if dup, err := r.hasImageTwin(ctx, listing); err == nil && dup {
			repoLogger.Debug("Listing shares an image hash with a known listing", port.Fields{
				"source":    string(listing.Source),
				"native_id": listing.NativeID,
			})
			return false, nil
		}
	}

	return true, nil
}

// hasImageTwin ищет более раннюю запись с тем же image_hash.
func (r *PostgresDedupIndexRepository) hasImageTwin(ctx context.Context, listing domain.ScannedListing) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM scanned_listings
            WHERE image_hash = $1
              AND NOT (source = $2 AND native_id = $3)
              AND first_seen < $4
        )
    `
	var exists bool
	err := r.dbPool.QueryRow(ctx, query, listing.ImageHash, string(listing.Source), listing.NativeID, listing.FirstSeen).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("PostgresDedupIndexRepo: error checking image twin: %w", err)
	}
	return exists, nil
}

// PurgeOlderThan удаляет записи за пределами окна дедупликации.
func (r *PostgresDedupIndexRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.dbPool.Exec(ctx, `DELETE FROM scanned_listings WHERE first_seen < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("PostgresDedupIndexRepo: error purging stale entries: %w", err)
	}
	return tag.RowsAffected(), nil
}
