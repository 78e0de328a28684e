// Command jptctl issues JSON Proof Tokens from the command line.
package main

import (
	"os"

	"github.com/hashicorp/go-hclog"
)

func main() {
	rootCmd := newRootCommand()

	if err := rootCmd.Execute(); err != nil {
		hclog.Default().Error("jptctl failed", "error", err)
		os.Exit(1)
	}
}
