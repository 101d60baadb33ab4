package dataset

import "fmt"

// XORLabel returns a XOR b for bits a and b.
func XORLabel(a, b int) float64 {
	return float64((a ^ b) & 1)
}

// XOR builds the four-row truth table in the order (0,0), (1,0), (0,1), (1,1).
func XOR() Dataset {
	ds := Dataset{Name: "xor", InputSize: 2, OutputSize: 1}
	for _, in := range [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		ds.Samples = append(ds.Samples, Sample{
			Key:      fmt.Sprintf("%d%d", in[0], in[1]),
			Features: []float64{float64(in[0]), float64(in[1])},
			Label:    []float64{XORLabel(in[0], in[1])},
		})
	}
	return ds
}
