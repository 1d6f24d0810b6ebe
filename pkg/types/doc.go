// Package types defines the Storage handle, the schema-less Record and its
// identifiers, operation results, typed marketplace entities, and the
// standard error values shared by every kennel component.
package types
