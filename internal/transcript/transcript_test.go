package transcript

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/promptd/internal/llm"
	"github.com/fyrsmithlabs/promptd/internal/orchestrator"
)

func sampleResult(t *testing.T) *orchestrator.RunResult {
	t.Helper()
	engine, err := orchestrator.NewV2(llm.NewMock(), 2, orchestrator.DefaultV2Config(), nil)
	require.NoError(t, err)
	result := engine.Run(context.Background(),
		"Summarize this bug report: checkout returns 500 after the v2.3 deploy, stack trace attached.")
	require.NoError(t, result.Validate())
	require.NotEmpty(t, result.Passes)
	return result
}

func TestWriteOnePassPerLine(t *testing.T) {
	result := sampleResult(t)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, result))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, len(result.Passes))
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "{"), "each line must be one JSON object")
	}
}

func TestWriteDoesNotEscapeHTML(t *testing.T) {
	result := sampleResult(t)
	result.Passes = result.Passes[:1]
	result.Passes[0].Draft = "use a < b && b > c"
	result.Passes[0].Revision = "use a < b && b > c"

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, result))
	assert.Contains(t, buf.String(), "a < b && b > c")
	assert.NotContains(t, buf.String(), `\u003c`)
}

func TestRoundTripPreservesPasses(t *testing.T) {
	result := sampleResult(t)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, result))

	got, err := ReadPasses(&buf)
	require.NoError(t, err)
	require.Len(t, got, len(result.Passes))
	for i, want := range result.Passes {
		assert.Equal(t, want.Step, got[i].Step)
		assert.Equal(t, want.Phase, got[i].Phase)
		assert.Equal(t, want.Draft, got[i].Draft)
		assert.Equal(t, want.Revision, got[i].Revision)
		assert.Equal(t, want.Diff, got[i].Diff)
		assert.Equal(t, want.TokenEstimate, got[i].TokenEstimate)
	}
}

func TestReadPassesSkipsBlankLines(t *testing.T) {
	input := `{"step":1,"phase":"revision","draft":"a","revision":"b","diff":"","token_estimate":4,"created_at":"2025-01-01T00:00:00Z","meta":{}}


{"step":2,"phase":"revision","draft":"c","revision":"d","diff":"","token_estimate":8,"created_at":"2025-01-01T00:00:01Z","meta":{}}
`
	got, err := ReadPasses(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Step)
	assert.Equal(t, 2, got[1].Step)
}

func TestReadPassesRejectsMalformedLine(t *testing.T) {
	input := "{\"step\":1,\"draft\":\"a\",\"revision\":\"b\"}\nnot json\n"
	_, err := ReadPasses(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestWriteFileAndReadFile(t *testing.T) {
	result := sampleResult(t)
	path := filepath.Join(t.TempDir(), "out", "v2_bug.jsonl")

	require.NoError(t, WriteFile(path, result))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, got, len(result.Passes))
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.jsonl"))
	assert.Error(t, err)
}
