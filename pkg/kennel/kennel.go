// Package kennel holds build metadata for the kennel module.
package kennel

// Version is the release of the kennel module and CLI.
const Version = "0.1.0"

// ModulePath is the Go import path of the module.
const ModulePath = "github.com/mesh-intelligence/kennel"
