// Command govstandards serves the UK government technology standards
// catalogue over MCP and manages it from the command line.
package main

import (
	"os"

	"github.com/Version1/uk-gov-tech-standards-mcp/cmd/govstandards/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
