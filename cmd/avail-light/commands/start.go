package commands

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	tmos "github.com/tendermint/tendermint/libs/os"

	"github.com/rollkit/lightbridge/relay"
)

// NewStartCmd returns the command that runs the light node.
func NewStartCmd() *cobra.Command {
	var printMessages bool
	cmd := &cobra.Command{
		Use:     "start",
		Aliases: []string{"node", "run"},
		Short:   "Run the light node",
	}
	loadConfig := withConfig(cmd)
	cmd.Flags().BoolVar(&printMessages, "print_messages", false, "print every verification message to stdout")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var notifier relay.Notifier
		if printMessages {
			out := cmd.OutOrStdout()
			var mtx sync.Mutex
			notifier = relay.NotifierFunc(func(topic, payload []byte) {
				mtx.Lock()
				defer mtx.Unlock()
				fmt.Fprintf(out, "%s %s\n", topic, payload)
			})
		}

		runtime := newRuntime(cmd.ErrOrStderr())
		stopped := make(chan struct{})

		// Stop upon receiving SIGTERM or CTRL-C.
		tmos.TrapSignal(loggerAdapter{cmd}, func() {
			runtime.StopLightNode()
			<-stopped
		})

		err = runtime.StartLightNode(cfg, notifier)
		close(stopped)
		runtime.Close()
		if err != nil {
			return fmt.Errorf("light node stopped: %w", err)
		}
		return nil
	}
	return cmd
}

// loggerAdapter prints signal notices on the command's error output.
type loggerAdapter struct {
	cmd *cobra.Command
}

func (l loggerAdapter) Info(msg string, keyvals ...interface{}) {
	fmt.Fprintln(l.cmd.ErrOrStderr(), append([]interface{}{msg}, keyvals...)...)
}
