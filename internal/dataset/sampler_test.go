package dataset

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEpochOrderDeterministic(t *testing.T) {
	order1 := EpochOrder(100, rand.New(rand.NewSource(7)), true)
	order2 := EpochOrder(100, rand.New(rand.NewSource(7)), true)
	require.Equal(t, order1, order2)

	sorted := append([]int(nil), order1...)
	sort.Ints(sorted)
	for i, v := range sorted {
		require.Equal(t, i, v)
	}
}

func TestEpochOrderWithoutShuffle(t *testing.T) {
	require.Equal(t, []int{0, 1, 2, 3}, EpochOrder(4, rand.New(rand.NewSource(1)), false))
	require.Equal(t, []int{0, 1, 2}, EpochOrder(3, nil, true))
}

func TestBatchesRemainder(t *testing.T) {
	order := EpochOrder(100, nil, false)
	batches := Batches(order, 64)
	require.Len(t, batches, 2)
	require.Len(t, batches[0], 64)
	require.Len(t, batches[1], 36)
	require.Equal(t, 64, batches[1][0])
}

func TestBatchesOversizedBatch(t *testing.T) {
	batches := Batches([]int{3, 1, 2, 0}, 10)
	require.Equal(t, [][]int{{3, 1, 2, 0}}, batches)
}

func TestBatchesEmptyOrder(t *testing.T) {
	require.Nil(t, Batches(nil, 4))
	require.Nil(t, Batches([]int{}, 0))
	require.Nil(t, Batches(nil, -1))
	require.Nil(t, Batches(EpochOrder(0, nil, false), 64))
}
