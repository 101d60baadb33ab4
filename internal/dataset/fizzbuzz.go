package dataset

import "fmt"

// FizzBuzz classes, in label order.
const (
	ClassNumber = iota
	ClassFizz
	ClassBuzz
	ClassFizzBuzz

	FizzBuzzClasses = 4
)

// Bin returns the little-endian binary expansion of i over digits bits.
func Bin(i, digits int) []float64 {
	out := make([]float64, digits)
	for d := 0; d < digits; d++ {
		out[d] = float64(i >> d & 1)
	}
	return out
}

// FizzBuzzClass maps i to its FizzBuzz class.
func FizzBuzzClass(i int) int {
	switch {
	case i%15 == 0:
		return ClassFizzBuzz
	case i%5 == 0:
		return ClassBuzz
	case i%3 == 0:
		return ClassFizz
	default:
		return ClassNumber
	}
}

// FizzBuzzLabel returns the one-hot label for i.
func FizzBuzzLabel(i int) []float64 {
	out := make([]float64, FizzBuzzClasses)
	out[FizzBuzzClass(i)] = 1
	return out
}

// FizzBuzz builds samples for every integer in [from, to].
func FizzBuzz(from, to, digits int) Dataset {
	ds := Dataset{Name: "fizzbuzz", InputSize: digits, OutputSize: FizzBuzzClasses}
	for i := from; i <= to; i++ {
		ds.Samples = append(ds.Samples, Sample{
			Key:      fmt.Sprintf("%06d", i),
			Features: Bin(i, digits),
			Label:    FizzBuzzLabel(i),
		})
	}
	return ds
}
