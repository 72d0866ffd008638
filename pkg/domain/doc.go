/*
Package domain contains the value types shared by every part of dicetree.

It defines the data that flows through an expression tree during evaluation, and is
kept free of I/O, persistence and randomness implementations.

# Key Entities

  - Batch: the outcomes of N independent trials produced by one sampling call.
  - Distribution: the exact outcome-to-probability mapping of an expression.
  - Relation: the comparison used by reroll and explode predicates.
  - Source: the contract of the injected random generator.
  - Limits: the ceilings that keep exact computation tractable.
*/
package domain
