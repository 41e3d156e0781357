// Package main shows basic matrix construction and arithmetic.
package main

import (
	"fmt"
	"log"

	"github.com/FlavioCFOliveira/GoPerceptron/internal/matrix"
)

func grid() *matrix.Matrix {
	m, err := matrix.Arange(0, 10, 1)
	if err != nil {
		log.Fatal(err)
	}
	if _, err := m.Reshape(2, 5); err != nil {
		log.Fatal(err)
	}
	return m
}

func main() {
	a, b := grid(), grid()

	sum, err := a.Add(b)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(sum)

	product, err := a.Dot(b.Transpose())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("\n%v\n%v\n", product.Shape(), product)
}
