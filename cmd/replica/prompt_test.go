package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptForRun(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("/data/src\n/backup/dst\n*.tmp node_modules\n")

	args, err := promptForRun(in, &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/src", "/backup/dst", "*.tmp", "node_modules"}, args)
	assert.Contains(t, out.String(), "source directory")
}

func TestPromptForRun_NoPatterns(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("/a\n/b\n\n")

	args, err := promptForRun(in, &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/b"}, args)
}

func TestPromptForRun_MissingSource(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("\n")

	_, err := promptForRun(in, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source")
}

func TestPromptForRun_InputClosed(t *testing.T) {
	var out bytes.Buffer
	_, err := promptForRun(strings.NewReader(""), &out)
	require.Error(t, err)
}
