package geo

import (
	"context"
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/placenote/internal/apperr"
	"github.com/iliyamo/placenote/internal/model"
)

const earthRadiusMeters = 6370986 // radius used by MySQL ST_Distance_Sphere

func haversine(a, b model.GeoPoint) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := rad(b.Latitude - a.Latitude)
	dLng := rad(b.Longitude - a.Longitude)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(a.Latitude))*math.Cos(rad(b.Latitude))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// sphereStore behaves like the MySQL proximity query over an in-memory set.
type sphereStore struct {
	memos      []model.Memo
	calls      int
	lastRadius float64
	lastLimit  int
}

func (s *sphereStore) Nearby(_ context.Context, p model.GeoPoint, radius float64, limit int) ([]model.NearbyMemo, error) {
	s.calls++
	s.lastRadius, s.lastLimit = radius, limit
	var out []model.NearbyMemo
	for _, m := range s.memos {
		if d := haversine(p, m.Location); d <= radius {
			out = append(out, model.NearbyMemo{Memo: m, DistanceMeters: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceMeters < out[j].DistanceMeters })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// rawStore returns canned rows as-is, ignoring radius and limit.
type rawStore struct {
	rows []model.NearbyMemo
	err  error
}

func (s *rawStore) Nearby(context.Context, model.GeoPoint, float64, int) ([]model.NearbyMemo, error) {
	return s.rows, s.err
}

func ptrF(f float64) *float64 { return &f }
func ptrI(i int) *int         { return &i }

func memoAt(id string, lng, lat float64) model.Memo {
	return model.Memo{ID: id, Location: model.GeoPoint{Longitude: lng, Latitude: lat}}
}

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		name     string
		lng, lat float64
		wantErr  bool
	}{
		{name: "origin", lng: 0, lat: 0},
		{name: "seoul", lng: 127.0, lat: 37.5},
		{name: "bounds inclusive", lng: -180, lat: 90},
		{name: "other bounds", lng: 180, lat: -90},
		{name: "longitude too large", lng: 180.0001, lat: 0, wantErr: true},
		{name: "longitude too small", lng: -181, lat: 0, wantErr: true},
		{name: "latitude too large", lng: 0, lat: 90.5, wantErr: true},
		{name: "latitude too small", lng: 0, lat: -100, wantErr: true},
		{name: "NaN longitude", lng: math.NaN(), lat: 0, wantErr: true},
		{name: "NaN latitude", lng: 0, lat: math.NaN(), wantErr: true},
		{name: "infinite longitude", lng: math.Inf(1), lat: 0, wantErr: true},
		{name: "infinite latitude", lng: 0, lat: math.Inf(-1), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCoordinates(tt.lng, tt.lat)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, apperr.ErrInvalidCoordinate)
			var verr *apperr.ValidationError
			assert.True(t, errors.As(err, &verr))
		})
	}
}

func TestValidateCoordinates_OutOfRangeSweep(t *testing.T) {
	for _, l := range []float64{180.000001, 200, 360, 1e9} {
		assert.Error(t, ValidateCoordinates(l, 0))
		assert.Error(t, ValidateCoordinates(-l, 0))
	}
	for _, g := range []float64{90.000001, 91, 180, 1e9} {
		assert.Error(t, ValidateCoordinates(0, g))
		assert.Error(t, ValidateCoordinates(0, -g))
	}
}

func TestNearby_ThreeWithinTwoBeyond(t *testing.T) {
	store := &sphereStore{memos: []model.Memo{
		memoAt("far-1", 127.002, 37.5), // ~177m
		memoAt("mid", 127.0006, 37.5),  // ~53m
		memoAt("far-2", 127.01, 37.5),  // ~883m
		memoAt("edge", 127.001, 37.5),  // ~88m
		memoAt("near", 127.0003, 37.5), // ~26m
	}}
	svc := NewService(store, DefaultPolicy)

	got, err := svc.Nearby(context.Background(), Query{
		Point:        model.GeoPoint{Longitude: 127.0, Latitude: 37.5},
		RadiusMeters: ptrF(100),
		Limit:        ptrI(5),
	})

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"near", "mid", "edge"}, []string{got[0].ID, got[1].ID, got[2].ID})
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].DistanceMeters, got[i].DistanceMeters)
	}
}

func TestNearby_Defaults(t *testing.T) {
	store := &sphereStore{}
	svc := NewService(store, DefaultPolicy)

	_, err := svc.Nearby(context.Background(), Query{Point: model.GeoPoint{Longitude: 1, Latitude: 1}})
	require.NoError(t, err)
	assert.Equal(t, 50.0, store.lastRadius)
	assert.Equal(t, 20, store.lastLimit)

	_, err = svc.Nearby(context.Background(), Query{
		Point: model.GeoPoint{Longitude: 1, Latitude: 1}, RadiusMeters: ptrF(0), Limit: ptrI(0),
	})
	require.NoError(t, err)
	assert.Equal(t, 50.0, store.lastRadius)
	assert.Equal(t, 20, store.lastLimit)
}

func TestNearby_ClampsLimitAndRadius(t *testing.T) {
	store := &sphereStore{}
	svc := NewService(store, DefaultPolicy)

	_, err := svc.Nearby(context.Background(), Query{
		Point:        model.GeoPoint{Longitude: 1, Latitude: 1},
		RadiusMeters: ptrF(1e7),
		Limit:        ptrI(10000),
	})

	require.NoError(t, err)
	assert.Equal(t, 100, store.lastLimit)
	assert.Equal(t, 5000.0, store.lastRadius)
}

func TestNearby_EnforcesOrderAndCeilingOnMisbehavingStore(t *testing.T) {
	var rows []model.NearbyMemo
	for i := 150; i > 0; i-- {
		rows = append(rows, model.NearbyMemo{Memo: model.Memo{ID: "m"}, DistanceMeters: float64(i % 7)})
	}
	svc := NewService(&rawStore{rows: rows}, DefaultPolicy)

	got, err := svc.Nearby(context.Background(), Query{
		Point: model.GeoPoint{Longitude: 0, Latitude: 0}, Limit: ptrI(500),
	})

	require.NoError(t, err)
	assert.Len(t, got, 100)
	assert.True(t, sort.SliceIsSorted(got, func(i, j int) bool {
		return got[i].DistanceMeters < got[j].DistanceMeters
	}))
}

func TestNearby_TiesKeepStoreOrder(t *testing.T) {
	rows := []model.NearbyMemo{
		{Memo: model.Memo{ID: "b"}, DistanceMeters: 10},
		{Memo: model.Memo{ID: "a"}, DistanceMeters: 10},
		{Memo: model.Memo{ID: "c"}, DistanceMeters: 5},
	}
	svc := NewService(&rawStore{rows: rows}, DefaultPolicy)

	got, err := svc.Nearby(context.Background(), Query{Point: model.GeoPoint{}})

	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestNearby_InvalidInputNeverReachesStore(t *testing.T) {
	store := &sphereStore{}
	svc := NewService(store, DefaultPolicy)
	ctx := context.Background()

	_, err := svc.Nearby(ctx, Query{Point: model.GeoPoint{Longitude: 181, Latitude: 0}})
	assert.ErrorIs(t, err, apperr.ErrInvalidCoordinate)

	_, err = svc.Nearby(ctx, Query{Point: model.GeoPoint{}, RadiusMeters: ptrF(-1)})
	assert.ErrorIs(t, err, apperr.ErrInvalidParameter)

	_, err = svc.Nearby(ctx, Query{Point: model.GeoPoint{}, RadiusMeters: ptrF(math.NaN())})
	assert.ErrorIs(t, err, apperr.ErrInvalidParameter)

	_, err = svc.Nearby(ctx, Query{Point: model.GeoPoint{}, Limit: ptrI(-3)})
	assert.ErrorIs(t, err, apperr.ErrInvalidParameter)

	assert.Zero(t, store.calls)
}

func TestNearby_StoreFailurePropagates(t *testing.T) {
	storeErr := apperr.Store("nearby memos", errors.New("i/o timeout"))
	svc := NewService(&rawStore{err: storeErr}, DefaultPolicy)

	_, err := svc.Nearby(context.Background(), Query{Point: model.GeoPoint{}})

	assert.ErrorIs(t, err, apperr.ErrStoreUnavailable)
}
