package main

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{
		"line_code=LINE001",
		"defect_rate=20",
		"cancel_production=false",
		"defect_types=solder",
		"defect_types=short",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"line_code":         "LINE001",
		"defect_rate":       20.0,
		"cancel_production": false,
		"defect_types":      []any{"solder", "short"},
	}, params)
}

func TestParseParamsRejectsMalformedPairs(t *testing.T) {
	for _, pair := range []string{"line_code", "=LINE001"} {
		_, err := parseParams([]string{pair})
		assert.Error(t, err, pair)
	}
}

func TestOptionsCommandNeedsArguments(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"options"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	assert.Error(t, cmd.Execute())
}
