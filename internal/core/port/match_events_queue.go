package port

import (
	"context"

	"github.com/feldboy/aparmenttool/internal/core/domain"
)

// MatchEventsQueuePort публикует события о найденных совпадениях в шину.
type MatchEventsQueuePort interface {
	PublishMatchEvent(ctx context.Context, event domain.MatchEvent) error
}
