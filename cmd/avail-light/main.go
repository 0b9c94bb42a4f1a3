package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tendermint/tendermint/libs/cli"

	cmd "github.com/rollkit/lightbridge/cmd/avail-light/commands"
)

func main() {
	// Initiate the root command
	rootCmd := cmd.RootCmd

	// Add subcommands to the root command
	rootCmd.AddCommand(
		cmd.NewStartCmd(),
		cmd.NewStatusCmd(),
		cmd.NewMessagesCmd(),
		cmd.NewSubmitCmd(),
		cmd.VersionCmd,
	)

	// Prepare the base command and execute
	executor := cli.PrepareBaseCmd(rootCmd, "AVAIL", os.ExpandEnv(filepath.Join("$HOME", ".avail-light")))
	if err := executor.Execute(); err != nil {
		// Print to stderr and exit with error
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
