package usecases_port

import (
	"github.com/feldboy/aparmenttool/internal/core/domain"
)

type EvaluateListingPort interface {
	Execute(profile *domain.SearchProfile, listing *domain.RawListing) domain.MatchResult
}
