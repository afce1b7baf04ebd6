package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourcesCommandListsDefaults(t *testing.T) {
	t.Setenv("FEEDSCANNER_CONFIG", "")

	var out bytes.Buffer
	cliApp := rootApp()
	cliApp.Writer = &out

	require.NoError(t, cliApp.Run([]string{"feedscanner", "sources"}))

	assert.Contains(t, out.String(), "DEV.to")
	assert.Contains(t, out.String(), "https://www.freecodecamp.org/news/rss/")
	assert.Contains(t, out.String(), "programming, tutorials")
}

func TestSourcesCommandRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scheduler:\n  cronExpression: \"not a cron\"\n"), 0o600))

	cliApp := rootApp()
	cliApp.Writer = &bytes.Buffer{}

	err := cliApp.Run([]string{"feedscanner", "--config", path, "sources"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
