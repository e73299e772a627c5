package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(oldWd) })

	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err = root.Execute()
	return out.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()

	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"render", "validate", "version"})
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Projector version")
	assert.Contains(t, out, Version)
}

func TestValidateCommand(t *testing.T) {
	out, err := runCommand(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "conversation (")
	assert.Contains(t, out, "attachment (")
}

func TestRenderCommand_Sample(t *testing.T) {
	out, err := runCommand(t, "render", "--fixtures", "sample", "--ids", "1", "--visitor", "2")
	require.NoError(t, err)

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "Weekend plans", decoded[0]["conversation_title"])
	assert.Equal(t, false, decoded[0]["conversation_has_new_message"])
}

func TestRenderCommand_RequiresIDs(t *testing.T) {
	_, err := runCommand(t, "render", "--fixtures", "sample")
	assert.Error(t, err)
}

func TestRenderCommand_NoDatabase(t *testing.T) {
	_, err := runCommand(t, "render", "--ids", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database url")
}
