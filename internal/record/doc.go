// Package record holds the working memory of the change lifecycle model and
// the schema-checked predicate algebra used by guards, filters and targets.
//
// Every read and write goes through a Patch: a map from schema field name to
// value. Field names are checked against the record's declared schema when a
// predicate or action is constructed, and the addressed record is checked when
// it is evaluated. A typo in a condition key therefore fails loudly instead of
// silently evaluating to false.
//
// # Records
//
//   - Change: one lifecycle entity (header, packet, solution, dispute, edit)
//   - Global: cross-cutting flags that depend on many Changes
//   - Context: ordered Changes, cursor, creation counter, logical time, Global
//
// Context values are never mutated in place. Actions return a new Context that
// shares nothing mutable with the original, so two branches of a search never
// alias.
//
// # Failure
//
// Construction and evaluation failures panic with *SchemaError or *ShapeError.
// These are programmer errors in a model or scenario; callers that want an
// ordinary error (the path generator, the scenario loader) recover them with
// Recover.
package record
