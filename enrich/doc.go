// Package enrich attaches sentiment to records read back from the queue.
//
// Enricher fans one classification call per record out to a worker pool and
// joins them all. It keeps no partial success: one failed call fails the
// batch, and the queue redelivers it.
//
// Handler runs one invocation: decode an envelope, enrich its records and
// hand them to a Deliverer. Consumer drives a Handler from a stream.Source,
// committing each delivery only after it was handled.
package enrich
