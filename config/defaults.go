package config

import (
	"time"
)

const (
	// Version is the current light bridge version
	// Please keep updated with each new release
	Version = "0.1.0"
	// DefaultFullNodeWS is the default full node endpoint.
	DefaultFullNodeWS = "ws://127.0.0.1:9944"
)

// DefaultConfig keeps default values of Config
var DefaultConfig = Config{
	AvailPath:           "avail_path",
	FullNodeWS:          []string{DefaultFullNodeWS},
	LogLevel:            "info",
	LogFormat:           "plain",
	HTTPServerHost:      "127.0.0.1",
	HTTPServerPort:      7000,
	CORSAllowedOrigins:  []string{"*"},
	MaxOpenConnections:  900,
	BroadcastBufferSize: 1024,
	Prometheus:          false,
	ConnectionTimeout:   30 * time.Second,
}
