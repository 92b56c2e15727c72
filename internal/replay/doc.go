// Package replay drives a collaborator through generated paths and checks
// that it behaves the way the model predicts.
//
// Steps of one path are issued strictly in order; each operation is awaited
// before the next is sent, because later steps depend on earlier ones having
// committed. Navigation events only move the model's cursor and are never
// sent. Independent paths may be replayed concurrently with RunAll, each
// against its own collaborator.
//
// A failed expectation aborts the remaining steps of that path only. Nothing
// is retried.
package replay
