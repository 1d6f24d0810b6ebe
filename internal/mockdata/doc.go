// Package mockdata is a latency-simulating CRUD service over named entity
// collections. Each collection is one JSON array stored under
// mock_<entity> in a types.Storage.
//
// Every asynchronous operation reads the collection, waits out the
// configured delay, then modifies and writes the whole collection back.
// Two operations on the same entity issued without waiting for each other
// therefore race, and the one that resolves last wins.
package mockdata
