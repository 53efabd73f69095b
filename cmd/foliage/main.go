// Package main provides the entry point for the foliage CLI tool.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/foliage/cmd/foliage/commands"
)

const (
	exitError     = 1
	exitUncovered = 2
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "foliage",
		Short: "Foliage - branch and decision coverage for Ruby",
		Long: `Foliage runs Ruby source and reports every branch outcome that was never observed.

Commands:
  run       Measure coverage of Ruby files
  eval      Measure coverage of inline code
  parse     Print the parsed (or instrumented) tree`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String(commands.FlagConfig, "", "config file (default: ./foliage.yaml)")

	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewEvalCommand())
	rootCmd.AddCommand(commands.NewParseCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	err := rootCmd.Execute()
	if err == nil {
		return
	}

	if errors.Is(err, commands.ErrUncovered) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUncovered)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(exitError)
}
