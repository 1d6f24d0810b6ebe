// Command kennel manages the mock data store behind the pet community site.
package main

import "github.com/mesh-intelligence/kennel/internal/cli"

func main() {
	cli.Execute()
}
