/*
Package dicetree computes with dice expressions: it rolls them, simulates them over many
trials and derives their exact probability distributions.

# Concept

An expression is an immutable tree of nodes (package expr). Leaves are constants and
uniform ranges such as a d6; inner nodes combine them arithmetically, cap them against
another expression, reroll or explode matching results, pool several dice together, or
keep and drop the highest or lowest dice of a pool. Every node answers the same questions:
its bounds, a batch of random outcomes drawn from an injected source, and its exact
distribution.

Trees are assembled with the fluent builder in package dsl, or decoded from YAML and JSON
documents with package schema.

# Usage

	eng, err := dicetree.New(dicetree.WithSeed(42))
	if err != nil {
		log.Fatal(err)
	}

	// 4d6, drop the lowest.
	node := dsl.Of(4).D(6).DropLowest(1).MustBuild()

	v, _ := eng.Roll(ctx, node)
	dist, _ := eng.Distribution(ctx, node)
	fmt.Println(v, dist.Mean())

# Limits

Exact computation enumerates outcomes, so it is bounded by domain.Limits. The Engine checks
an expression against its limits before computing and returns a *domain.LimitError when
the expression is too large; Estimate is the simulated fallback.

# Caching

With WithCache the Engine stores computed distributions keyed by the expression's
description and the limits in force. Memory, Redis and SQLite adapters live under
pkg/adapters. WithLocker makes replicas that share a Redis cache compute each missing
distribution once.
*/
package dicetree
