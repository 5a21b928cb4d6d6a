package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/inkbridge/plaintext"
)

func newStripCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strip [file|-]",
		Short: "Print the plain-text form of HTML input",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "-"
			if len(args) == 1 {
				name = args[0]
			}
			input, err := readInput(cmd, name)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), plaintext.StripTags(input))
			return err
		},
	}
}
