// Command stoa runs the Stoa ledger-indexing service: it ingests blocks
// from a single Agora consensus node and serves the projected read API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "stoa",
		Short: "Stoa ledger indexing and read-API service",
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newGenKeyCmd())
	root.AddCommand(newGenCertsCmd())
	return root
}
