package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerFiltersLevel(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "error", FormatPlain)
	require.NoError(err)

	logger.Info("hidden", "key", "value")
	assert.Empty(buf.String())

	logger.Error("shown", "key", "value")
	assert.Contains(buf.String(), "shown")
}

func TestNewLoggerJSON(t *testing.T) {
	require := require.New(t)

	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "debug", FormatJSON)
	require.NoError(err)

	logger.Debug("record", "topic", "header-verified")

	var record map[string]interface{}
	require.NoError(json.Unmarshal(buf.Bytes(), &record))
	require.Equal("record", record["_msg"])
	require.Equal("header-verified", record["topic"])
}

func TestNewLoggerErrors(t *testing.T) {
	_, err := NewLogger(&bytes.Buffer{}, "loud", FormatPlain)
	assert.Error(t, err)

	_, err = NewLogger(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)
}
