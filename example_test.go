package dicetree_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/dicetree"
	"github.com/aretw0/dicetree/pkg/dsl"
)

func ExampleEngine_Distribution() {
	eng, err := dicetree.New(dicetree.WithSeed(1))
	if err != nil {
		log.Fatal(err)
	}

	// Advantage: roll two d20 and keep the highest.
	node := dsl.Of(2).D(20).KeepHighest(1).MustBuild()
	dist, err := eng.Distribution(context.Background(), node)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(node)
	fmt.Printf("P(20) = %.4f\n", dist.Prob(20))
	fmt.Printf("P(>=15) = %.4f\n", dist.AtLeast(15))
	// Output:
	// 2d20kh
	// P(20) = 0.0975
	// P(>=15) = 0.5100
}

func ExampleSummarize() {
	s := dicetree.Summarize([]int{3, 5, 7})
	fmt.Printf("n=%d mean=%.1f min=%d max=%d\n", s.Trials, s.Mean, s.Min, s.Max)
	// Output:
	// n=3 mean=5.0 min=3 max=7
}
