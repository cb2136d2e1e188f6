// internal/domain/order/entity_test.go
package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionDineIn(t *testing.T) {
	assert.True(t, CanTransition(TypeDineIn, StatusPlaced, StatusConfirmed))
	assert.True(t, CanTransition(TypeDineIn, StatusConfirmed, StatusPreparing))
	assert.True(t, CanTransition(TypeDineIn, StatusPreparing, StatusReady))
	assert.True(t, CanTransition(TypeDineIn, StatusReady, StatusServed))

	// Dine-in never collects or delivers.
	assert.False(t, CanTransition(TypeDineIn, StatusReady, StatusCollected))
	assert.False(t, CanTransition(TypeDineIn, StatusReady, StatusDelivered))

	// Served is terminal.
	assert.False(t, CanTransition(TypeDineIn, StatusServed, StatusCancelled))
}

func TestCanTransitionTakeaway(t *testing.T) {
	assert.True(t, CanTransition(TypeTakeaway, StatusReady, StatusCollected))
	assert.False(t, CanTransition(TypeTakeaway, StatusReady, StatusServed))
	assert.False(t, CanTransition(TypeTakeaway, StatusCollected, StatusCancelled))
}

func TestCanTransitionCatering(t *testing.T) {
	assert.True(t, CanTransition(TypeCatering, StatusPreparing, StatusDelivered))
	assert.False(t, CanTransition(TypeCatering, StatusPreparing, StatusReady))
	assert.False(t, CanTransition(TypeCatering, StatusDelivered, StatusCancelled))
}

func TestCanTransitionCancellation(t *testing.T) {
	for _, typ := range []OrderType{TypeDineIn, TypeTakeaway, TypeCatering} {
		assert.True(t, CanTransition(typ, StatusPlaced, StatusCancelled), "%s placed", typ)
		assert.True(t, CanTransition(typ, StatusConfirmed, StatusCancelled), "%s confirmed", typ)
		assert.False(t, CanTransition(typ, StatusCancelled, StatusPlaced), "%s cancelled is terminal", typ)
	}

	// Ready orders are past the point of cancellation.
	assert.False(t, CanTransition(TypeDineIn, StatusReady, StatusCancelled))
	assert.False(t, CanTransition(TypeTakeaway, StatusReady, StatusCancelled))
}

func TestCanTransitionNoSkipping(t *testing.T) {
	assert.False(t, CanTransition(TypeDineIn, StatusPlaced, StatusReady))
	assert.False(t, CanTransition(TypeTakeaway, StatusPlaced, StatusCollected))
	assert.False(t, CanTransition(TypeCatering, StatusPlaced, StatusDelivered))
}
