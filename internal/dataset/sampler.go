package dataset

import "math/rand"

// EpochOrder returns the sample visiting order for one epoch. With shuffle set
// the order is a fresh permutation drawn from rng.
func EpochOrder(n int, rng *rand.Rand, shuffle bool) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if shuffle && rng != nil {
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}
	return order
}

// Batches splits order into consecutive groups of at most size indices. The
// final batch carries the remainder. An empty order yields no batches.
func Batches(order []int, size int) [][]int {
	if len(order) == 0 {
		return nil
	}
	if size <= 0 || size > len(order) {
		size = len(order)
	}
	batches := make([][]int, 0, (len(order)+size-1)/size)
	for start := 0; start < len(order); start += size {
		end := start + size
		if end > len(order) {
			end = len(order)
		}
		batches = append(batches, order[start:end])
	}
	return batches
}
