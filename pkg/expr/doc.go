/*
Package expr implements the expression tree of dice nodes.

Every node answers the same contract under two semantics: Generate samples N independent
trials from an injected domain.Source, and Distribution computes the exact law of the
outcome. Min and Max bound both: every sampled value and every outcome in the support lies
within [Min(), Max()].

The set of node kinds is closed. Node carries an unexported marker method, so every
implementation lives in this package and a switch over Kind is exhaustive.

# Node kinds

  - Leaves: Constant, UniformRange (and Die).
  - Arithmetic: Sum, Difference, Product, Quotient (variadic, flattened on construction).
  - Capped comparisons: LessThan, LessOrEqual, GreaterThan, GreaterOrEqual.
  - Resampling: Reroll and Explode, each tagged with a domain.Relation.
  - Pool: "count dice of type X", where count is itself a node.
  - Order statistics: KeepHighest, KeepLowest, DropHighest, DropLowest over a pool.
  - Observers: decorators that report rolls or batches to a callback.

Nodes are immutable after construction and safe to evaluate repeatedly; every Generate call
allocates fresh batches.
*/
package expr
