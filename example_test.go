package proxima_test

import (
	"context"
	"fmt"

	"github.com/proximadb/proxima"
)

func Example() {
	store, err := proxima.New(proxima.Options{
		Dimensions: 3,
		Metric:     proxima.MetricCosine,
	})
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	_, err = store.Insert(ctx, []proxima.Record{
		{ID: "a", Vector: []float64{1, 0, 0}, Content: "alpha"},
		{ID: "b", Vector: []float64{0, 1, 0}, Content: "beta"},
	})
	if err != nil {
		panic(err)
	}

	results, err := store.Search(ctx, []float64{1, 0, 0}, proxima.WithTopK(1))
	if err != nil {
		panic(err)
	}
	fmt.Printf("%s %.1f\n", results[0].ID, results[0].Score)
	// Output: a 1.0
}
