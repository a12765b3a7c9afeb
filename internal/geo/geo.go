// Package geo validates coordinates and runs nearby-memo queries against a
// proximity-capable store.  The distance math belongs to the store; this
// package owns input sanitation, the default and ceiling policy, and the
// shape of the result.
package geo

import (
	"context"
	"math"
	"sort"

	"github.com/iliyamo/placenote/internal/apperr"
	"github.com/iliyamo/placenote/internal/model"
)

// ValidateCoordinates accepts longitude in [-180,180] and latitude in
// [-90,90], bounds included.  NaN, infinities and out-of-range values are
// rejected, never clamped.
func ValidateCoordinates(lng, lat float64) error {
	if !inRange(lng, 180) {
		return apperr.Invalid("longitude", apperr.ErrInvalidCoordinate)
	}
	if !inRange(lat, 90) {
		return apperr.Invalid("latitude", apperr.ErrInvalidCoordinate)
	}
	return nil
}

// ValidatePoint is ValidateCoordinates for a model.GeoPoint.
func ValidatePoint(p model.GeoPoint) error {
	return ValidateCoordinates(p.Longitude, p.Latitude)
}

func inRange(v, bound float64) bool {
	// NaN fails both comparisons.
	return v >= -bound && v <= bound
}

// ProximityStore is the store's nearest-neighbour primitive.  It must return
// rows within radiusMeters of p, nearest first, at most limit of them.
type ProximityStore interface {
	Nearby(ctx context.Context, p model.GeoPoint, radiusMeters float64, limit int) ([]model.NearbyMemo, error)
}

// Policy holds the defaults and ceilings applied to every query.
type Policy struct {
	DefaultRadius float64
	MaxRadius     float64
	DefaultLimit  int
	MaxLimit      int
}

// DefaultPolicy matches the shipped configuration defaults.
var DefaultPolicy = Policy{DefaultRadius: 50, MaxRadius: 5000, DefaultLimit: 20, MaxLimit: 100}

// Query is a nearby request.  A nil or zero RadiusMeters or Limit means
// "use the default".
type Query struct {
	Point        model.GeoPoint
	RadiusMeters *float64
	Limit        *int
}

// Service runs nearby queries.
type Service struct {
	store  ProximityStore
	policy Policy
}

func NewService(store ProximityStore, policy Policy) *Service {
	return &Service{store: store, policy: policy}
}

// Resolve validates q and returns the effective radius and limit.
func (s *Service) Resolve(q Query) (radius float64, limit int, err error) {
	if err := ValidatePoint(q.Point); err != nil {
		return 0, 0, err
	}

	radius = s.policy.DefaultRadius
	if q.RadiusMeters != nil && *q.RadiusMeters != 0 {
		r := *q.RadiusMeters
		if math.IsNaN(r) || math.IsInf(r, 0) || r < 0 {
			return 0, 0, apperr.Invalid("radius", apperr.ErrInvalidParameter)
		}
		radius = r
	}
	if s.policy.MaxRadius > 0 && radius > s.policy.MaxRadius {
		radius = s.policy.MaxRadius
	}

	limit = s.policy.DefaultLimit
	if q.Limit != nil && *q.Limit != 0 {
		if *q.Limit < 0 {
			return 0, 0, apperr.Invalid("limit", apperr.ErrInvalidParameter)
		}
		limit = *q.Limit
	}
	if limit > s.policy.MaxLimit {
		limit = s.policy.MaxLimit
	}
	return radius, limit, nil
}

// Nearby returns memos around q.Point ordered by non-decreasing distance and
// never longer than the effective limit.  Invalid input is rejected before
// the store is called.
func (s *Service) Nearby(ctx context.Context, q Query) ([]model.NearbyMemo, error) {
	radius, limit, err := s.Resolve(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.store.Nearby(ctx, q.Point, radius, limit)
	if err != nil {
		return nil, err
	}

	// Stable, so equal distances keep the store's order.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].DistanceMeters < rows[j].DistanceMeters
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
