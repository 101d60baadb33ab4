// Command fizzbuzz trains a 7-64-4 network to classify 1..100 as
// number/fizz/buzz/fizzbuzz and writes fizzbuzz_model.tflite.
package main

import (
	"modelfixtures/internal/cli"
	"modelfixtures/internal/recipe"
)

func main() {
	cli.Main(recipe.FizzBuzz())
}
