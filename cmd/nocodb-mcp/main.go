// Command nocodb-mcp serves a NocoDB server as a catalog of tools for a
// tool-calling host.
package main

import "github.com/andrewlwn77/nocodb-mcp/internal/cli"

func main() {
	cli.Execute()
}
