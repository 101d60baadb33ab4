// Command xor trains a 2-16-16-1 network on the XOR truth table and writes
// xor_model.tflite.
package main

import (
	"modelfixtures/internal/cli"
	"modelfixtures/internal/recipe"
)

func main() {
	cli.Main(recipe.XOR())
}
