package repository

import (
	"context"

	"local-electrician/internal/domain/entity"
)

// ElectricianDirectory is the external electrician directory, read-only from
// this engine's perspective. GetProfile returns (nil, nil) for an unknown id.
type ElectricianDirectory interface {
	ListVerifiedWithLocation(ctx context.Context) ([]*entity.Electrician, error)
	GetProfile(ctx context.Context, electricianID string) (*entity.ElectricianProfile, error)
}

// CustomerDirectory is the external customer directory. GetProfile returns
// (nil, nil) for an unknown ref.
type CustomerDirectory interface {
	GetProfile(ctx context.Context, customerRef string) (*entity.CustomerProfile, error)
}
