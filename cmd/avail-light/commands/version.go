package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rollkit/lightbridge/config"
	"github.com/rollkit/lightbridge/rpc"
)

var (
	// GitSHA is set at build time
	GitSHA string
)

// VersionCmd is the command to show version info for the light client
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version info",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "avail-light version: %s\n", config.Version)
		if GitSHA != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "git sha: %s\n", GitSHA)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "network version: %s\n", rpc.ExpectedNetworkVersion)
	},
}
