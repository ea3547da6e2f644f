package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_Version(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Execute("1.2.3", []string{"--version"}, &out))
	assert.Equal(t, "1.2.3\n", out.String())
}

func TestExecute_Help(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Execute("dev", []string{"--help"}, &out))
	assert.Contains(t, out.String(), "run")
	assert.Contains(t, out.String(), "serve")
	assert.Contains(t, out.String(), "status")
}

func TestExecute_InvalidFlag(t *testing.T) {
	assert.Error(t, Execute("dev", []string{"--invalid-flag"}, &bytes.Buffer{}))
}

func TestRun_RequiresToken(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")

	err := Execute("dev", []string{"run", "acme/widgets"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token")
}

func TestRun_InvalidCoordinate(t *testing.T) {
	err := Execute("dev", []string{"run", "widgets", "--token", "x"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "owner/name")
}

func TestRun_InvalidConfiguration(t *testing.T) {
	err := Execute("dev", []string{"run", "acme/widgets", "--token", "x", "--store", "memory", "--chunk-overlap", "1000"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk_overlap")
}

func TestStatus_MemoryStore(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Execute("dev", []string{"status", "Acme/Widgets", "--store", "memory"}, &out))

	assert.Contains(t, out.String(), "Repository: Acme/Widgets")
	assert.Contains(t, out.String(), "Collection: acme_widgets")
	assert.Contains(t, out.String(), "not ingested")
}

func TestRunMain_Failure(t *testing.T) {
	exitCode := -1
	runMain([]string{"repo-ingest", "--invalid"}, func(code int) { exitCode = code })
	assert.Equal(t, 1, exitCode)
}
