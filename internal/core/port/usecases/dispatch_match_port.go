package usecases_port

import (
	"context"

	"github.com/feldboy/aparmenttool/internal/core/domain"
)

type DispatchMatchPort interface {
	Execute(ctx context.Context, profile *domain.SearchProfile, listing *domain.RawListing, match domain.MatchResult) ([]domain.DeliveryReport, error)

	// ExecuteAlert доставляет служебное сообщение оператору (не пользователю).
	ExecuteAlert(ctx context.Context, text string) error
}
