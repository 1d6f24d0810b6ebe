// Package storage implements types.Storage backends: an in-process map for
// tests, one JSON file per key in a data directory, a key/value table in
// SQLite or Postgres, and objects in an S3 bucket.
package storage
