package mocks

import (
	"context"

	"github.com/UnknownOlympus/haulage/internal/models"
	"github.com/stretchr/testify/mock"
)

// Provider is a mock type for the routing.Provider type.
type Provider struct {
	mock.Mock
}

// Geocode provides a mock function with given fields: ctx, address.
func (_m *Provider) Geocode(ctx context.Context, address string) (*models.Location, error) {
	ret := _m.Called(ctx, address)

	var r0 *models.Location
	if rf, ok := ret.Get(0).(func(context.Context, string) *models.Location); ok {
		r0 = rf(ctx, address)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Location)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, address)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Route provides a mock function with given fields: ctx, origin, destination.
func (_m *Provider) Route(
	ctx context.Context,
	origin, destination models.Coordinates,
) (*models.RouteMetrics, error) {
	ret := _m.Called(ctx, origin, destination)

	var r0 *models.RouteMetrics
	if rf, ok := ret.Get(0).(func(context.Context, models.Coordinates, models.Coordinates) *models.RouteMetrics); ok {
		r0 = rf(ctx, origin, destination)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.RouteMetrics)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, models.Coordinates, models.Coordinates) error); ok {
		r1 = rf(ctx, origin, destination)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewProvider creates a new instance of Provider. It also registers a testing interface on the mock
// and a cleanup function to assert the mocks expectations.
func NewProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *Provider {
	m := &Provider{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
