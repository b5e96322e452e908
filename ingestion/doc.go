// Package ingestion turns raw text into line records and publishes them.
//
// Text arrives through one of two triggers. An object-created notification
// names files in a blob store; every referenced key is validated before any
// object is fetched. A direct request carries the file inline as base64.
// Either way the payload is split into non-empty lines, each line becomes a
// core.TextRecord numbered by its position among the kept lines, and the
// records are published in batches through a stream.Publisher.
package ingestion
