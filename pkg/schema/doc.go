// Package schema reads and writes dice expressions as structured documents.
//
// A document is a tree of kinded objects, written in YAML or JSON. Bare integers are
// accepted wherever an expression is expected and stand for constants:
//
//	kind: keep_highest
//	of: 4
//	dice: {kind: die, sides: 6}
//	n: 3
//
// Documents are decoded into a Spec, checked, and built into an expression tree:
//
//	spec, err := schema.Parse(data)
//	if err != nil {
//	    // malformed document
//	}
//	node, err := schema.Build(spec)
//	if err != nil {
//	    // every field problem is listed in a *schema.AggregateError
//	}
//
// Encode performs the reverse conversion so that built trees can be stored or sent over
// the wire.
package schema
