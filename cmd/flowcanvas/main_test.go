package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas"
)

const sampleFlow = `{
  "nodes": [
    {"id": "a", "type": "llm", "position": {"x": 0, "y": 0}, "data": {"descriptor": {"displayName": "a"}, "value": "", "onRemove": {"nodeId": "a"}}},
    {"id": "b", "type": "prompt", "position": {"x": 200, "y": 0}, "data": {"descriptor": {"displayName": "b"}, "value": "", "onRemove": {"nodeId": "b"}}}
  ],
  "edges": [
    {"id": "flowcanvas__edge-aout-bin", "source": "a", "sourceHandle": "out", "target": "b", "targetHandle": "in"}
  ],
  "main_in": "a",
  "main_out": "b"
}`

// runCLI executes the root command against a database in dir.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--db", filepath.Join(dir, "flows.db"), "--token", "tok"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func importSample(t *testing.T, dir string) string {
	t.Helper()
	file := writeFile(t, dir, "triage.json", sampleFlow)
	out, err := runCLI(t, dir, "flows", "import", file)
	require.NoError(t, err)
	require.Contains(t, out, "Imported triage as ")

	var id string
	fields := strings.Fields(out)
	for i, field := range fields {
		if field == "as" && i+1 < len(fields) {
			id = fields[i+1]
			break
		}
	}
	require.NotEmpty(t, id, "no flow id in:\n%s", out)

	out, err = runCLI(t, dir, "flows", "list")
	require.NoError(t, err)
	require.Contains(t, out, id)
	require.Contains(t, out, "triage")
	return id
}

func TestFlowsList_Empty(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, dir, "flows", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No flows saved yet.")
}

func TestFlowsImportShowExportDelete(t *testing.T) {
	dir := t.TempDir()
	id := importSample(t, dir)

	out, err := runCLI(t, dir, "flows", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "2 nodes, 1 edges")
	assert.Contains(t, out, "Order: a → b")
	assert.Contains(t, out, "Structure\n")

	exported := filepath.Join(dir, "out.json")
	_, err = runCLI(t, dir, "flows", "export", id, "-o", exported)
	require.NoError(t, err)
	data, err := os.ReadFile(exported)
	require.NoError(t, err)
	dag, err := flowcanvas.DecodeDag(data)
	require.NoError(t, err)
	assert.Len(t, dag.Nodes, 2)
	assert.Equal(t, "a", dag.MainIn)

	stdout, err := runCLI(t, dir, "flows", "export", id)
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))

	_, err = runCLI(t, dir, "flows", "delete", id)
	require.NoError(t, err)
	_, err = runCLI(t, dir, "flows", "show", id)
	assert.Error(t, err)
}

func TestFlowsImport_WarnsOnProblems(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "broken.json", `{"nodes":[{"id":"a","type":"llm","position":{"x":0,"y":0}}],
		"edges":[{"id":"e1","source":"a","target":"gone"}]}`)
	out, err := runCLI(t, dir, "flows", "import", file, "--name", "broken")
	require.NoError(t, err)
	assert.Contains(t, out, "1 structural problems")
}

func TestFlowsImport_RejectsBadJSON(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "bad.json", `{"nodes": [`)
	_, err := runCLI(t, dir, "flows", "import", file)
	assert.Error(t, err)
}

func TestFlowsDelete_OtherOwner(t *testing.T) {
	dir := t.TempDir()
	id := importSample(t, dir)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--db", filepath.Join(dir, "flows.db"), "--token", "someone-else", "flows", "delete", id})
	assert.Error(t, cmd.Execute())
}

func TestCatalogList(t *testing.T) {
	dir := t.TempDir()
	catalogFile := writeFile(t, dir, "catalog.yaml", `nodes:
  - id: llm-1
    displayName: llm-1
    type: llm
    tags: [model]
  - id: prompt
    displayName: Prompt
    type: prompt
    tags: [text]
`)
	config := writeFile(t, dir, "flowcanvas.yaml", "store:\n  driver: memory\ncatalog:\n  path: "+catalogFile+"\n")

	out, err := runCLI(t, dir, "--config", config, "catalog", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "llm-1")
	assert.Contains(t, out, "Prompt")
	assert.Contains(t, out, "2 entries")

	out, err = runCLI(t, dir, "--config", config, "catalog", "list", "--tag", "model")
	require.NoError(t, err)
	assert.Contains(t, out, "llm-1")
	assert.NotContains(t, out, "Prompt")

	out, err = runCLI(t, dir, "--config", config, "catalog", "list", "--tag", "none")
	require.NoError(t, err)
	assert.Contains(t, out, `No entries tagged "none".`)
}

func TestInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	config := writeFile(t, dir, "bad.yaml", "editor:\n  id_policy: random\n")
	_, err := runCLI(t, dir, "--config", config, "flows", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id_policy")
}

func TestEditorOptions(t *testing.T) {
	a := &app{}
	cmd := newRootCmd()
	require.NoError(t, a.load(cmd))
	assert.Len(t, a.editorOptions(), 8)
}
