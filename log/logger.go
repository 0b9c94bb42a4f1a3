package log

import (
	"fmt"
	"io"
	"strings"

	tmlog "github.com/tendermint/tendermint/libs/log"
)

// Logger interface is compatible with Tendermint logger
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
}

const (
	// FormatPlain selects the logfmt-like Tendermint output.
	FormatPlain = "plain"
	// FormatJSON selects one JSON object per record.
	FormatJSON = "json"
)

// NewLogger creates a Tendermint logger writing to dst, filtered to the given
// level ("debug", "info", "error" or "none").
func NewLogger(dst io.Writer, level string, format string) (tmlog.Logger, error) {
	var logger tmlog.Logger
	switch strings.ToLower(format) {
	case "", FormatPlain:
		logger = tmlog.NewTMLogger(tmlog.NewSyncWriter(dst))
	case FormatJSON:
		logger = tmlog.NewTMJSONLogger(tmlog.NewSyncWriter(dst))
	default:
		return nil, fmt.Errorf("unsupported log format: %q", format)
	}

	if level == "" {
		level = "info"
	}
	option, err := tmlog.AllowLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}
	return tmlog.NewFilter(logger, option), nil
}
