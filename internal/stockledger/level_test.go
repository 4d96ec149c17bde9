package stockledger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/velora-pos/velora/internal/shared"
)

func TestIncreaseDecrease(t *testing.T) {
	lvl := Level{}
	require.NoError(t, lvl.Increase(10))
	require.EqualValues(t, 10, lvl.OnHand)

	require.NoError(t, lvl.Decrease(4))
	require.EqualValues(t, 6, lvl.OnHand)

	err := lvl.Decrease(7)
	var stockErr *shared.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.EqualValues(t, 7, stockErr.Requested)
	require.EqualValues(t, 6, stockErr.Available)
	require.EqualValues(t, 6, lvl.OnHand)
}

func TestInvalidQuantities(t *testing.T) {
	lvl := Level{OnHand: 5}
	require.ErrorIs(t, lvl.Increase(0), shared.ErrInvalidArgument)
	require.ErrorIs(t, lvl.Increase(-3), shared.ErrInvalidArgument)
	require.ErrorIs(t, lvl.Decrease(0), shared.ErrInvalidArgument)
	require.ErrorIs(t, lvl.Publish(0), shared.ErrInvalidArgument)
}

func TestPublishIsAdditive(t *testing.T) {
	lvl := Level{OnHand: 10}

	require.NoError(t, lvl.Publish(4))
	require.EqualValues(t, 4, lvl.Published)
	require.True(t, lvl.IsPublished())

	err := lvl.Publish(7)
	var pubErr *shared.PublishLimitError
	require.ErrorAs(t, err, &pubErr)
	require.EqualValues(t, 7, pubErr.Requested)
	require.EqualValues(t, 6, pubErr.Available)
	require.True(t, errors.Is(err, shared.ErrInvalidArgument))

	require.NoError(t, lvl.Publish(6))
	require.EqualValues(t, 10, lvl.Published)
}

func TestUnpublish(t *testing.T) {
	lvl := Level{OnHand: 10, Published: 7}
	lvl.Unpublish()
	require.EqualValues(t, 0, lvl.Published)
	require.False(t, lvl.IsPublished())
}

func TestDecreaseClampsPublished(t *testing.T) {
	lvl := Level{OnHand: 10, Published: 8}
	require.NoError(t, lvl.Decrease(5))
	require.EqualValues(t, 5, lvl.OnHand)
	require.EqualValues(t, 5, lvl.Published)

	lvl = Level{OnHand: 10, Published: 3}
	require.NoError(t, lvl.Decrease(5))
	require.EqualValues(t, 3, lvl.Published)
}

func TestInvariantHoldsAfterEveryOp(t *testing.T) {
	lvl := Level{}
	check := func() {
		require.GreaterOrEqual(t, lvl.Published, int64(0))
		require.LessOrEqual(t, lvl.Published, lvl.OnHand)
	}
	require.NoError(t, lvl.Increase(20))
	check()
	require.NoError(t, lvl.Publish(15))
	check()
	require.NoError(t, lvl.Decrease(10))
	check()
	lvl.Unpublish()
	check()
	require.NoError(t, lvl.Decrease(10))
	check()
}
