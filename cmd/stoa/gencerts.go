package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumenledger/stoa/crypto/certgen"
)

func newGenCertsCmd() *cobra.Command {
	var dir, nodeID string
	cmd := &cobra.Command{
		Use:   "gencerts",
		Short: "Generate a CA and node certificate/key pair for the private intake port's mTLS",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := certgen.GenerateAll(dir, nodeID, nil); err != nil {
				return err
			}
			fmt.Printf("Certificates generated in %s for node %q\n", dir, nodeID)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "out", "./certs", "output directory for the generated PEM files")
	cmd.Flags().StringVar(&nodeID, "node-id", "stoa", "node identifier used in the certificate's common/SAN names")
	return cmd
}
