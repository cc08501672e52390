package simulator

import (
	"context"

	"xrdsim/pkg/domain"
)

//go:generate mockgen -package mocksimulator -source=interface.go -destination=mock/mocksimulator.go *
type Simulator interface {
	Simulate(ctx context.Context, structure domain.Structure) (*domain.Pattern, error)
}
