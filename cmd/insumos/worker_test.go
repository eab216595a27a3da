package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/tair/insumos/internal/insumos/domain"
)

type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) InvalidateBranch(ctx context.Context, branchID string) error {
	args := m.Called(ctx, branchID)
	return args.Error(0)
}

func (m *MockInvalidator) InvalidateCatalog(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestInvalidateListing(t *testing.T) {
	invalidator := new(MockInvalidator)
	invalidator.On("InvalidateBranch", mock.Anything, "11222333000262").Return(nil).Once()
	handler := invalidateListing(invalidator)

	assert.NoError(t, handler(context.Background(), domain.Event{Type: domain.EventInventoryEdited, BranchID: "11222333000262"}))
	assert.NoError(t, handler(context.Background(), domain.Event{Type: domain.EventInventoryEdited}))

	invalidator.AssertExpectations(t)
	invalidator.AssertNumberOfCalls(t, "InvalidateBranch", 1)
}

func TestInvalidateListingPropagatesFailure(t *testing.T) {
	invalidator := new(MockInvalidator)
	invalidator.On("InvalidateBranch", mock.Anything, mock.AnythingOfType("string")).Return(errors.New("redis down"))

	err := invalidateListing(invalidator)(context.Background(), domain.Event{BranchID: "11222333000262"})
	assert.EqualError(t, err, "redis down")
}

func TestInvalidateListingOnCatalogChange(t *testing.T) {
	invalidator := new(MockInvalidator)
	invalidator.On("InvalidateCatalog", mock.Anything).Return(nil).Twice()
	handler := invalidateListing(invalidator)

	assert.NoError(t, handler(context.Background(), domain.Event{Type: domain.EventItemTypeUpdated, EntityID: 9}))
	assert.NoError(t, handler(context.Background(), domain.Event{Type: domain.EventItemTypeDeleted, EntityID: 9}))

	invalidator.AssertExpectations(t)
	invalidator.AssertNotCalled(t, "InvalidateBranch", mock.Anything, mock.Anything)
}
