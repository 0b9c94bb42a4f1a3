package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rollkit/lightbridge/types"
)

// NewStatusCmd returns the command printing the light client status.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the status of the light client as JSON",
		Args:  cobra.NoArgs,
	}
	loadConfig := withConfig(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		runtime := newRuntime(cmd.ErrOrStderr())
		defer runtime.Close()
		return printJSON(cmd, runtime.StatusJSON(cmd.Context(), cfg))
	}
	return cmd
}

// NewMessagesCmd returns the command printing the stored messages of a topic.
func NewMessagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "messages [topic]",
		Short:     "Print the stored messages of a topic as JSON",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"header-verified", "confidence-achieved", "data-verified"},
	}
	loadConfig := withConfig(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		topic, err := types.ParseTopic(args[0])
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		runtime := newRuntime(cmd.ErrOrStderr())
		defer runtime.Close()
		return printJSON(cmd, runtime.MessageListJSON(cmd.Context(), cfg, topic))
	}
	return cmd
}

// printJSON prints out and turns an error envelope into a command error.
func printJSON(cmd *cobra.Command, out string) error {
	var resp types.ErrorResponse
	if err := json.Unmarshal([]byte(out), &resp); err == nil && resp.Message != "" {
		return fmt.Errorf("query failed: %s", resp.Message)
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
