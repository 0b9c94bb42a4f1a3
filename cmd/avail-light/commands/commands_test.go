package commands

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rollkit/lightbridge/bridge"
	"github.com/rollkit/lightbridge/config"
	"github.com/rollkit/lightbridge/store"
	"github.com/rollkit/lightbridge/test/mocks"
)

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "avail-light", SilenceUsage: true, SilenceErrors: true}
	registerFlagsRootCmd(root)
	root.AddCommand(cmd)

	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func useMocks(t *testing.T) *mocks.Connector {
	t.Helper()
	connector := &mocks.Connector{}
	opener := store.NewInMemoryOpener()
	orig := newRuntime
	newRuntime = func(io.Writer) *bridge.Runtime {
		return bridge.NewRuntime(bridge.WithLogOutput(io.Discard), bridge.WithOpener(opener), bridge.WithConnector(connector.Connect))
	}
	t.Cleanup(func() { newRuntime = orig })
	return connector
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, VersionCmd, "version")
	require.NoError(t, err)
	assert.Contains(t, out, config.Version)
	assert.Contains(t, out, "1.6/data-avail")
}

func TestMessagesCmd(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, NewMessagesCmd(), "messages", "header-verified", "--avail_path", filepath.Join(dir, "db"))
	require.NoError(t, err)
	assert.Equal(t, "{\"message_list\":[]}\n", out)

	_, err = execute(t, NewMessagesCmd(), "messages", "blocks")
	assert.ErrorContains(t, err, "unknown topic")
}

func TestStatusCmd(t *testing.T) {
	connector := useMocks(t)
	out, err := execute(t, NewStatusCmd(), "status", "--app_id", "3", "--full_node_ws", "ws://10.0.0.1:9944")
	require.NoError(t, err)
	assert.Contains(t, out, `"app_id":3`)
	assert.Contains(t, out, `"network":"ws://10.0.0.1:9944/`)
	assert.Equal(t, 1, connector.Attempts())
}

func TestStatusCmdFromFile(t *testing.T) {
	useMocks(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app_id: 9\nfull_node_ws: [wss://rpc.example.com]\n"), 0600))

	out, err := execute(t, NewStatusCmd(), "status", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"app_id":9`)
	assert.Contains(t, out, `"network":"wss://rpc.example.com/`)

	_, err = execute(t, NewStatusCmd(), "status", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "config decode error")
}

func TestSubmitCmd(t *testing.T) {
	connector := useMocks(t)

	t.Setenv(envSecretKey, "not a key")
	_, err := execute(t, NewSubmitCmd(), "submit", "--data", "hello")
	assert.EqualError(t, err, "secret key error")
	assert.Zero(t, connector.Attempts())

	t.Setenv(envSecretKey, "//Alice")
	out, err := execute(t, NewSubmitCmd(), "submit", "--extrinsic", "0x010203")
	require.NoError(t, err)
	assert.Regexp(t, `^0x[0-9a-f]{64}\n$`, out)
	assert.Equal(t, [][]byte{{0x01, 0x02, 0x03}}, connector.Last().Submitted())

	_, err = execute(t, NewSubmitCmd(), "submit")
	assert.ErrorContains(t, err, "transaction is empty")

	_, err = execute(t, NewSubmitCmd(), "submit", "--extrinsic", "0xzz")
	assert.ErrorContains(t, err, "invalid extrinsic")
}
