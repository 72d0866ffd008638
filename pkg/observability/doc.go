/*
Package observability exposes Prometheus metrics for dice evaluation.

Metrics are attached to expressions through the observer decorators of the expr package,
so instrumented trees report their own rolls and batches without changes to the engine.
*/
package observability
