package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rollkit/lightbridge/types"
)

const (
	flagAvailPath           = "avail_path"
	flagFullNodeWS          = "full_node_ws"
	flagAppID               = "app_id"
	flagLogLevel            = "log_level"
	flagLogFormat           = "log_format"
	flagHTTPServerHost      = "http_server_host"
	flagHTTPServerPort      = "http_server_port"
	flagCORSAllowedOrigins  = "cors_allowed_origins"
	flagMaxOpenConnections  = "max_open_connections"
	flagBroadcastBufferSize = "broadcast_buffer_size"
	flagPrometheus          = "prometheus"
	flagConnectionTimeout   = "connection_timeout"
)

var errEmptyConfig = errors.New("configuration is empty")

// Config stores light client settings shared by every entry point.
type Config struct {
	// AvailPath is the directory of the local store.
	AvailPath string `mapstructure:"avail_path"`
	// FullNodeWS lists full node websocket endpoints, tried in order.
	FullNodeWS []string `mapstructure:"full_node_ws"`
	// AppID enables app mode when non-zero.
	AppID uint32 `mapstructure:"app_id"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// HTTPServerPort 0 disables the HTTP API.
	HTTPServerHost     string   `mapstructure:"http_server_host"`
	HTTPServerPort     uint16   `mapstructure:"http_server_port"`
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	MaxOpenConnections int      `mapstructure:"max_open_connections"`

	// BroadcastBufferSize is the per-subscriber capacity of the event bus.
	// A subscriber lagging further behind is dropped.
	BroadcastBufferSize int           `mapstructure:"broadcast_buffer_size"`
	Prometheus          bool          `mapstructure:"prometheus"`
	ConnectionTimeout   time.Duration `mapstructure:"connection_timeout"`
}

// ParseConfig decodes a boundary configuration buffer (YAML). A trailing NUL
// terminator is tolerated and missing keys take their default values. An
// empty buffer is rejected.
func ParseConfig(buf []byte) (Config, error) {
	buf = bytes.TrimRight(buf, "\x00")
	if len(bytes.TrimSpace(buf)) == 0 {
		return Config{}, fmt.Errorf("%w: %v", types.ErrConfigDecode, errEmptyConfig)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	if err := v.ReadConfig(bytes.NewReader(buf)); err != nil {
		return Config{}, fmt.Errorf("%w: %v", types.ErrConfigDecode, err)
	}
	return FromViper(v)
}

// FromViper reads configuration from a Viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	var conf Config
	err := v.Unmarshal(&conf, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", types.ErrConfigDecode, err)
	}
	if err := conf.Validate(); err != nil {
		return Config{}, fmt.Errorf("%w: %v", types.ErrConfigDecode, err)
	}
	return conf, nil
}

// Validate checks the fields every entry point depends on.
func (c Config) Validate() error {
	if strings.TrimSpace(c.AvailPath) == "" {
		return errors.New("avail_path must not be empty")
	}
	if len(c.FullNodeWS) == 0 {
		return errors.New("full_node_ws must list at least one endpoint")
	}
	for _, addr := range c.FullNodeWS {
		u, err := url.Parse(addr)
		if err != nil {
			return fmt.Errorf("invalid full node address %q: %w", addr, err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("invalid full node address %q: expecting ws:// or wss://", addr)
		}
	}
	if c.BroadcastBufferSize < 1 {
		return errors.New("broadcast_buffer_size must be positive")
	}
	return nil
}

// Clone returns a copy that shares no slices with c.
func (c Config) Clone() Config {
	out := c
	out.FullNodeWS = append([]string(nil), c.FullNodeWS...)
	out.CORSAllowedOrigins = append([]string(nil), c.CORSAllowedOrigins...)
	return out
}

// HasAppID reports whether app mode is enabled.
func (c Config) HasAppID() bool {
	return c.AppID != 0
}

// HTTPListenAddress returns the API listen address or "" when disabled.
func (c Config) HTTPListenAddress() string {
	if c.HTTPServerPort == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.HTTPServerHost, c.HTTPServerPort)
}

func setDefaults(v *viper.Viper) {
	def := DefaultConfig
	v.SetDefault(flagAvailPath, def.AvailPath)
	v.SetDefault(flagFullNodeWS, def.FullNodeWS)
	v.SetDefault(flagAppID, def.AppID)
	v.SetDefault(flagLogLevel, def.LogLevel)
	v.SetDefault(flagLogFormat, def.LogFormat)
	v.SetDefault(flagHTTPServerHost, def.HTTPServerHost)
	v.SetDefault(flagHTTPServerPort, def.HTTPServerPort)
	v.SetDefault(flagCORSAllowedOrigins, def.CORSAllowedOrigins)
	v.SetDefault(flagMaxOpenConnections, def.MaxOpenConnections)
	v.SetDefault(flagBroadcastBufferSize, def.BroadcastBufferSize)
	v.SetDefault(flagPrometheus, def.Prometheus)
	v.SetDefault(flagConnectionTimeout, def.ConnectionTimeout)
}

// AddFlags adds light client configuration options to cobra Command and binds
// them to v.
func AddFlags(cmd *cobra.Command, v *viper.Viper) error {
	def := DefaultConfig
	cmd.Flags().String(flagAvailPath, def.AvailPath, "directory of the local store")
	cmd.Flags().StringSlice(flagFullNodeWS, def.FullNodeWS, "full node websocket endpoints, tried in order")
	cmd.Flags().Uint32(flagAppID, def.AppID, "application id (enables app mode)")
	cmd.Flags().Uint16(flagHTTPServerPort, def.HTTPServerPort, "HTTP API port, 0 disables the API")
	cmd.Flags().Bool(flagPrometheus, def.Prometheus, "expose prometheus metrics on the HTTP API")
	cmd.Flags().Duration(flagConnectionTimeout, def.ConnectionTimeout, "full node connection timeout")

	setDefaults(v)
	return v.BindPFlags(cmd.Flags())
}
