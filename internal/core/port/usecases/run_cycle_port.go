package usecases_port

import (
	"context"

	"github.com/feldboy/aparmenttool/internal/core/domain"
)

type RunCyclePort interface {
	Execute(ctx context.Context) (domain.CycleStats, error)
}
