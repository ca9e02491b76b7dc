package usecase

import (
	"context"
	"sort"

	"local-electrician/internal/domain/entity"
	"local-electrician/internal/domain/repository"
	"local-electrician/pkg/geo"
	"local-electrician/pkg/logger"
)

// GeoIndex answers radius queries over the verified electrician population.
// Candidate data comes from the directory (usually through the short-TTL
// cache); the index itself holds no state.
type GeoIndex struct {
	directory repository.ElectricianDirectory
	logger    logger.Logger
}

// NewGeoIndex creates a new geo index
func NewGeoIndex(directory repository.ElectricianDirectory, log logger.Logger) *GeoIndex {
	return &GeoIndex{
		directory: directory,
		logger:    log,
	}
}

// Nearby returns the verified electricians within radiusKm of the point,
// nearest first, ties broken by ascending id. An empty result is not an
// error; a non-nil error means the lookup itself failed.
func (g *GeoIndex) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]entity.Candidate, error) {
	electricians, err := g.directory.ListVerifiedWithLocation(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]entity.Candidate, 0, len(electricians))
	for _, e := range electricians {
		if !e.IsVerified() || !e.HasLocation() {
			continue
		}
		dist := geo.DistanceKm(lat, lng, *e.Latitude, *e.Longitude)
		if dist > radiusKm {
			continue
		}
		candidates = append(candidates, entity.Candidate{
			Electrician: *e,
			DistanceKm:  dist,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].DistanceKm != candidates[j].DistanceKm {
			return candidates[i].DistanceKm < candidates[j].DistanceKm
		}
		return candidates[i].ID < candidates[j].ID
	})
	return candidates, nil
}
