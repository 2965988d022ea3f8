package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lumenledger/stoa/wallet"
)

func newGenKeyCmd() *cobra.Command {
	var keyPath string
	cmd := &cobra.Command{
		Use:   "genkey",
		Short: "Generate a new key and write it to an encrypted keystore file",
		RunE: func(cmd *cobra.Command, args []string) error {
			password := os.Getenv("STOA_PASSWORD")
			if password == "" {
				fmt.Fprintln(os.Stderr, "WARNING: STOA_PASSWORD not set, keystore will use an empty password")
			}
			w, err := wallet.Generate()
			if err != nil {
				return err
			}
			if err := wallet.SaveKey(keyPath, password, w.PrivKey()); err != nil {
				return err
			}
			fmt.Printf("Generated key. Address: %s\n", w.Address())
			fmt.Printf("Saved to: %s\n", keyPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&keyPath, "key", "stoa.key", "output path for the encrypted keystore file")
	return cmd
}
