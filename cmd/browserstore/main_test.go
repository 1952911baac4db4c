package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, out *bytes.Buffer, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestSession(t *testing.T) {
	dir := t.TempDir()
	steps := [][]string{
		{"put", "todos", `{"id":"1","title":"a"}`},
		{"put", "todos", `{"id":"2","title":"b"}`},
		{"put", "todos", `{"id":"2","done":true}`},
		{"ls", "todos"},
		{"get", "todos", "1"},
		{"keys"},
		{"keys", "--match", "todos-*"},
		{"rm", "todos", "1"},
		{"ls", "todos"},
		{"clear", "todos"},
		{"keys"},
	}

	var out bytes.Buffer
	for _, step := range steps {
		out.WriteString("$ browserstore " + strings.Join(step, " ") + "\n")
		args := append([]string{"--kind", "local", "--dir", dir}, step...)
		require.NoError(t, run(t, &out, args...), "%v", step)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "session", out.Bytes())
}

func TestPutGeneratesID(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	require.NoError(t, run(t, &out, "--kind", "indexedDB", "--dir", dir, "put", "notes", `{"text":"hello"}`))

	var record map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &record))
	id, ok := record["id"].(string)
	require.True(t, ok)
	assert.Len(t, id, 36)
	assert.Equal(t, "hello", record["text"])

	out.Reset()
	require.NoError(t, run(t, &out, "--kind", "indexedDB", "--dir", dir, "keys"))
	assert.Equal(t, "\"notes\"\n\"notes-"+id+"\"\n", out.String())
}

func TestGetMissing(t *testing.T) {
	var out bytes.Buffer
	err := run(t, &out, "--kind", "local", "--dir", t.TempDir(), "get", "todos", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Record Not Found")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "browserstore.yaml")
	var out bytes.Buffer

	err := run(t, &out, "--config", config, "keys")
	require.Error(t, err, "missing configuration file")

	require.NoError(t, os.WriteFile(config, []byte("kind: local\ndir: "+dir+"/store\n"), 0600))
	require.NoError(t, run(t, &out, "--config", config, "put", "todos", `{"id":"1"}`))
	out.Reset()
	require.NoError(t, run(t, &out, "--config", config, "keys"))
	assert.Equal(t, "\"todos\"\n\"todos-1\"\n", out.String())
}

func TestFlagErrors(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run(t, &out, "--kind", "local", "keys"), "local without a directory")
	assert.Error(t, run(t, &out, "--kind", "websql", "keys"))
	assert.Error(t, run(t, &out, "--kind", "session", "watch"))
	assert.Error(t, run(t, &out, "--kind", "session", "keys", "--match", "[a"))
	assert.Error(t, run(t, &out, "--kind", "session", "put", "todos", "[1]"))
}
