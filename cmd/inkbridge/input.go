package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

// readInput reads a named file, or stdin when name is "-" or empty.
func readInput(cmd *cobra.Command, name string) (string, error) {
	if name == "" || name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
