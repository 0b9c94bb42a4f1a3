package config

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rollkit/lightbridge/types"
)

func TestParseConfig(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		check   func(*testing.T, Config)
		wantErr bool
	}{
		{"missing keys use defaults", "app_id: 0", func(t *testing.T, c Config) {
			assert.Equal(t, DefaultConfig, c)
		}, false},
		{"overrides", `
avail_path: /tmp/avail
full_node_ws: ["ws://10.0.0.1:9944", "wss://rpc.example.org:443/ws"]
app_id: 7
http_server_port: 0
connection_timeout: 5s
`, func(t *testing.T, c Config) {
			assert.Equal(t, "/tmp/avail", c.AvailPath)
			assert.Equal(t, []string{"ws://10.0.0.1:9944", "wss://rpc.example.org:443/ws"}, c.FullNodeWS)
			assert.Equal(t, uint32(7), c.AppID)
			assert.True(t, c.HasAppID())
			assert.Equal(t, "", c.HTTPListenAddress())
			assert.Equal(t, 5*time.Second, c.ConnectionTimeout)
			assert.Equal(t, DefaultConfig.BroadcastBufferSize, c.BroadcastBufferSize)
		}, false},
		{"nul terminated", "avail_path: /data\x00", func(t *testing.T, c Config) {
			assert.Equal(t, "/data", c.AvailPath)
		}, false},
		{"comma separated endpoints", `full_node_ws: "ws://a:1,ws://b:2"`, func(t *testing.T, c Config) {
			assert.Equal(t, []string{"ws://a:1", "ws://b:2"}, c.FullNodeWS)
		}, false},
		{"empty buffer", "", nil, true},
		{"nul only", "\x00", nil, true},
		{"blank", " \n\t\x00", nil, true},
		{"malformed yaml", "avail_path: [unclosed", nil, true},
		{"wrong type", "http_server_port: many", nil, true},
		{"empty store path", `avail_path: ""`, nil, true},
		{"http endpoint", `full_node_ws: ["http://127.0.0.1:9933"]`, nil, true},
		{"zero buffer", "broadcast_buffer_size: 0", nil, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			conf, err := ParseConfig([]byte(c.input))
			if c.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, types.ErrConfigDecode))
				return
			}
			require.NoError(t, err)
			c.check(t, conf)
		})
	}
}

func TestParseConfigNil(t *testing.T) {
	_, err := ParseConfig(nil)
	assert.ErrorIs(t, err, types.ErrConfigDecode)
}

func TestClone(t *testing.T) {
	assert := assert.New(t)

	orig := DefaultConfig.Clone()
	clone := orig.Clone()
	clone.FullNodeWS[0] = "ws://changed:1"
	clone.CORSAllowedOrigins[0] = "https://example.org"

	assert.Equal(DefaultFullNodeWS, orig.FullNodeWS[0])
	assert.Equal("*", orig.CORSAllowedOrigins[0])
}

func TestAddFlags(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	cmd := &cobra.Command{}
	v := viper.New()
	require.NoError(AddFlags(cmd, v))
	require.NoError(cmd.Flags().Parse([]string{
		"--avail_path", "/var/lib/avail",
		"--full_node_ws", "ws://node:9944",
		"--app_id", "3",
	}))

	conf, err := FromViper(v)
	require.NoError(err)
	assert.Equal("/var/lib/avail", conf.AvailPath)
	assert.Equal([]string{"ws://node:9944"}, conf.FullNodeWS)
	assert.Equal(uint32(3), conf.AppID)
	assert.Equal(DefaultConfig.HTTPServerHost, conf.HTTPServerHost)
}
