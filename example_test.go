package rangebitmap_test

import (
	"fmt"
	"log"

	"github.com/hupe1980/rangebitmap"
)

func Example() {
	builder, err := rangebitmap.NewBuilder(1, 9)
	if err != nil {
		log.Fatal(err)
	}

	if err := builder.AppendMany([]uint64{5, 1, 9, 3, 7}); err != nil {
		log.Fatal(err)
	}

	rb, err := builder.Seal()
	if err != nil {
		log.Fatal(err)
	}

	rows, err := rb.Lte(5)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(rows.ToArray())

	count, err := rb.GteCardinality(7)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(count)
	// Output:
	// [0 1 3]
	// 2
}

func ExampleRangeBitmap_BetweenWithin() {
	builder, err := rangebitmap.NewBuilder(0, 100)
	if err != nil {
		log.Fatal(err)
	}

	if err := builder.AppendMany([]uint64{10, 20, 30, 40, 50, 60}); err != nil {
		log.Fatal(err)
	}

	rb, err := builder.Seal()
	if err != nil {
		log.Fatal(err)
	}

	within := rangebitmap.NewRowSetOf(0, 2, 4)

	rows, err := rb.BetweenWithin(20, 50, within)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(rows.ToArray())
	// Output:
	// [2 4]
}
