package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/unisphere-scheduler/internal/app/models/dto"
)

const snapshot = "../../internal/scheduler/testdata/small_term.json"

func TestRunPrintsResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, run([]string{"-file", snapshot}, &buf))

	var out dto.RunResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "partially_succeeded", out.State)
	assert.True(t, out.PreviewOnly)
	assert.Len(t, out.Assignments, 3)
	require.Len(t, out.Unassigned, 1)
	assert.Equal(t, "MATH210-01", out.Unassigned[0].Section)
	assert.Equal(t, 3, out.Statistics.ScheduledSections)
}

func TestRunWritesOutputFile(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "result.json")
	var buf bytes.Buffer
	require.NoError(t, run([]string{"-file", snapshot, "-out", outPath}, &buf))
	assert.Zero(t, buf.Len())

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"section_id": 1`)
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no file", nil},
		{"missing file", []string{"-file", "does-not-exist.json"}},
		{"negative backtracks", []string{"-file", snapshot, "-backtracks", "-1"}},
		{"strict with unassigned", []string{"-file", snapshot, "-strict"}},
		{"unknown flag", []string{"-bogus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, run(tt.args, &bytes.Buffer{}))
		})
	}
}
