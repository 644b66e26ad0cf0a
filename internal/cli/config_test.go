package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/teamdir/internal/config"
)

func TestConfigCommand_YAMLRoundTrips(t *testing.T) {
	buf := &bytes.Buffer{}
	opts := testRootOptions("text")
	cmd := NewConfigCommand(opts)
	cmd.SetOut(buf)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())

	cfg, err := config.Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, opts.Config, cfg)
}

func TestConfigCommand_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewConfigCommand(testRootOptions("json"))
	cmd.SetOut(buf)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestRootCommand_ConfigThroughRoot(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"config"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "page_size: 10")
}
