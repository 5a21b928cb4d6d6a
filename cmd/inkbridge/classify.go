package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/inkbridge/linkify"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <text...>",
		Short: "Infer the link scheme for text and print the normalized link",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := linkify.Classify(strings.Join(args, " "))
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", res.Kind, res.Value)
			return err
		},
	}
}
