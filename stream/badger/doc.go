// Package badger provides a durable local queue backed by BadgerDB.
//
// It implements stream.Submitter and stream.Source so the whole pipeline can
// run on a single machine without a managed queue service. Entries are kept
// in append order per stream; every consumer tracks its own cursor and only
// advances it on commit, which gives at-least-once delivery.
package badger
