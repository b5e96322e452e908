// Package delivery sends enriched records to their final destination.
//
// A Deliverer runs in one of two modes chosen at construction:
// QUEUE_FORWARD re-publishes records onto an outgoing stream through a
// stream.Publisher, and BULK_INDEX posts them to a search service's _bulk
// endpoint as newline-delimited JSON.
package delivery
