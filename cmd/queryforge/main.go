// Command queryforge compiles structured query descriptions against a
// schema catalog into dialect-specific SQL.
package main

import (
	"os"

	"github.com/queryforge/queryforge/cmd/queryforge/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
