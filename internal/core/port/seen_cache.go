package port

import (
	"context"
	"time"
)

// SeenCachePort - быстрый кэш-фильтр перед постоянным индексом дедупликации.
// Ошибки кэша не должны останавливать пайплайн: вызывающий код при сбое
// обязан идти в постоянный индекс.
type SeenCachePort interface {
	// Seen сообщает, помечены ли ВСЕ ключи. Кэш не изменяет.
	Seen(ctx context.Context, keys []string) (bool, error)
	// Mark помечает ключи с заданным сроком жизни. Вызывается только
	// после надежной записи в постоянный индекс.
	Mark(ctx context.Context, keys []string, ttl time.Duration) error
}
