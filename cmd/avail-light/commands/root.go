package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rollkit/lightbridge/bridge"
	"github.com/rollkit/lightbridge/config"
	"github.com/rollkit/lightbridge/types"
)

const flagConfig = "config"

func init() {
	registerFlagsRootCmd(RootCmd)
}

// registerFlagsRootCmd registers the flags for the root command
func registerFlagsRootCmd(cmd *cobra.Command) {
	cmd.PersistentFlags().String("log_level", config.DefaultConfig.LogLevel, "set the log level; default is info. other options include debug, info, error, none")
	cmd.PersistentFlags().String("log_format", config.DefaultConfig.LogFormat, "set the log format; options include plain and json")
}

// RootCmd is the root command for the light client
var RootCmd = &cobra.Command{
	Use:   "avail-light",
	Short: "Avail light client: follows a full node, records verification messages and submits transactions.",
	Long: `
Avail light client follows the finalized chain of an Avail full node, records
verification messages in a local store and submits transactions on behalf of
the host. Settings are read from flags, from the YAML file given with --config
and from AVAIL_ prefixed environment variables.
`,
	SilenceUsage: true,
}

// newRuntime creates the runtime a command runs on. Tests replace it.
var newRuntime = func(logOutput io.Writer) *bridge.Runtime {
	return bridge.NewRuntime(bridge.WithLogOutput(logOutput))
}

// withConfig registers the configuration flags on cmd and returns the loader
// of the resulting configuration.
func withConfig(cmd *cobra.Command) func() (config.Config, error) {
	v := viper.New()
	if err := config.AddFlags(cmd, v); err != nil {
		panic(err)
	}
	cmd.Flags().String(flagConfig, "", "path to a YAML configuration file")

	return func() (config.Config, error) {
		if err := v.BindPFlags(cmd.InheritedFlags()); err != nil {
			return config.Config{}, err
		}
		if path, _ := cmd.Flags().GetString(flagConfig); path != "" {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return config.Config{}, fmt.Errorf("%w: %v", types.ErrConfigDecode, err)
			}
		}
		return config.FromViper(v)
	}
}
