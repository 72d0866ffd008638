/*
Package dsl provides a fluent builder for dice expression trees.

Go has no operator overloading, so arithmetic, comparisons and dice modifiers are explicit
method calls. Plain integers are accepted wherever a node is expected and are lifted to
constants. The first construction error is kept and reported by Build, so a chain never
needs intermediate error checks.

Example usage:

	package main

	import (
		"github.com/aretw0/dicetree/pkg/dsl"
	)

	func main() {
		// 4d6 rerolling ones once, keep the three highest
		stat := dsl.Of(4).Dice(dsl.D(6).Reroll(1).Eq(1)).KeepHighest(3)

		// d20 + 5, never below 1
		attack := dsl.D(20).Plus(5).Ge(1)

		node, err := stat.Build()
		// ... pass node (or attack.MustBuild()) to an Engine
	}
*/
package dsl
