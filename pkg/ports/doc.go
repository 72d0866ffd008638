/*
Package ports defines the driven ports (interfaces) of the dicetree engine.

These interfaces decouple evaluation from external implementations, so that exact
distributions can be cached in process, in Redis or on disk.

# Key Interfaces

  - DistributionCache: stores computed distributions under a canonical expression key.
  - DistributedLocker: serializes expensive computations across engine replicas.
*/
package ports
