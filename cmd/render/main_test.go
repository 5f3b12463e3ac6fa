package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/render/state"
	"pipelined.dev/render/wav"
)

const graph = `
sample_rate: 22050
block_size: 256
duration: 0.5
nodes:
  - type: synth
    name: synth
    notes:
      - {note: 69, velocity: 127, start: 0, duration: 0.25}
    record:
      output: true
  - type: reverb
    name: reverb
    inputs: [synth]
`

func TestCommands(t *testing.T) {
	var names []string
	for _, cmd := range commands() {
		names = append(names, cmd.Name())
	}
	assert.Equal(t, []string{"render", "list"}, names)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	graphPath := filepath.Join(dir, "graph.yaml")
	require.NoError(t, os.WriteFile(graphPath, []byte(graph), 0o644))
	out := filepath.Join(dir, "out.wav")
	statePath := filepath.Join(dir, "state.yaml")

	tests := []struct {
		name     string
		args     []string
		exitCode int
		contains string
	}{
		{name: "usage", args: []string{"render"}, exitCode: errorExitCode, contains: "Commands:"},
		{name: "unknown", args: []string{"render", "play"}, exitCode: errorExitCode, contains: "Unknown command: play"},
		{name: "list", args: []string{"render", "list"}, exitCode: successExitCode, contains: "playback_warp"},
		{name: "missing flags", args: []string{"render", "render"}, exitCode: errorExitCode, contains: "Missing -graph required flag"},
		{name: "bad flag", args: []string{"render", "render", "-bit-depth", "x"}, exitCode: errorExitCode},
		{
			name:     "bad bit depth",
			args:     []string{"render", "render", "-graph", graphPath, "-out", out, "-bit-depth", "12"},
			exitCode: errorExitCode,
			contains: "Command failed",
		},
		{
			name:     "render",
			args:     []string{"render", "render", "-graph", graphPath, "-out", out, "-state", statePath, "-stem", "synth", "-metrics"},
			exitCode: successExitCode,
			contains: "Saved 2 records",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			c := config{args: tt.args, out: &buf}
			assert.Equal(t, tt.exitCode, c.run())
			assert.Contains(t, buf.String(), tt.contains)
		})
	}

	data, sampleRate, err := wav.Load(out)
	require.NoError(t, err)
	assert.Equal(t, 22050.0, sampleRate)
	assert.Equal(t, 2, data.NumChannels())
	assert.Equal(t, 11264, data.Size())

	stem, _, err := wav.Load(filepath.Join(dir, "out.synth.wav"))
	require.NoError(t, err)
	assert.Equal(t, data.Size(), stem.Size())

	records, err := state.Load(statePath)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "synth", records[0].UniqueName)
	assert.Equal(t, "reverb", records[1].UniqueName)
}

func TestStemPath(t *testing.T) {
	assert.Equal(t, "mix/out.drums.wav", stemPath("mix/out.wav", "drums"))
}
