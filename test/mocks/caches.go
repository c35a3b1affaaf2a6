package mocks

import (
	"context"

	"github.com/UnknownOlympus/haulage/internal/models"
	"github.com/stretchr/testify/mock"
)

// LocationCache is a mock type for the service.LocationCache type.
type LocationCache struct {
	mock.Mock
}

// GetLocation provides a mock function with given fields: ctx, query.
func (_m *LocationCache) GetLocation(ctx context.Context, query string) (*models.Location, error) {
	ret := _m.Called(ctx, query)

	var r0 *models.Location
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Location)
	}

	return r0, ret.Error(1)
}

// PutLocation provides a mock function with given fields: ctx, query, loc.
func (_m *LocationCache) PutLocation(ctx context.Context, query string, loc models.Location) error {
	ret := _m.Called(ctx, query, loc)

	return ret.Error(0)
}

// NewLocationCache creates a new instance of LocationCache with expectation assertion on cleanup.
func NewLocationCache(t interface {
	mock.TestingT
	Cleanup(func())
}) *LocationCache {
	m := &LocationCache{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// ProfileStore is a mock type for the service.ProfileStore type.
type ProfileStore struct {
	mock.Mock
}

// FetchPricingProfile provides a mock function with given fields: ctx, name.
func (_m *ProfileStore) FetchPricingProfile(ctx context.Context, name string) (*models.PricingConfig, error) {
	ret := _m.Called(ctx, name)

	var r0 *models.PricingConfig
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.PricingConfig)
	}

	return r0, ret.Error(1)
}

// NewProfileStore creates a new instance of ProfileStore with expectation assertion on cleanup.
func NewProfileStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *ProfileStore {
	m := &ProfileStore{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// RouteCache is a mock type for the service.RouteCache type.
type RouteCache struct {
	mock.Mock
}

// Get provides a mock function with given fields: ctx, origin, destination.
func (_m *RouteCache) Get(ctx context.Context, origin, destination models.Coordinates) (*models.RouteMetrics, error) {
	ret := _m.Called(ctx, origin, destination)

	var r0 *models.RouteMetrics
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.RouteMetrics)
	}

	return r0, ret.Error(1)
}

// Put provides a mock function with given fields: ctx, origin, destination, metrics.
func (_m *RouteCache) Put(ctx context.Context, origin, destination models.Coordinates, metrics models.RouteMetrics) error {
	ret := _m.Called(ctx, origin, destination, metrics)

	return ret.Error(0)
}

// NewRouteCache creates a new instance of RouteCache with expectation assertion on cleanup.
func NewRouteCache(t interface {
	mock.TestingT
	Cleanup(func())
}) *RouteCache {
	m := &RouteCache{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
