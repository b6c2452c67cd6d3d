package actions

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/goal-engine/internal/models"
	"github.com/example/goal-engine/internal/providers/llm"
)

func TestReadFileRejectsTraversal(t *testing.T) {
	a := NewReadFile(t.TempDir())

	for _, path := range []string{"../secret.txt", "uploads/../../etc/passwd", ".."} {
		res := a.Execute(context.Background(), map[string]any{"path": path})
		assert.Equal(t, models.StepFailed, res.Status, "path %q must be rejected", path)
		assert.Contains(t, res.Error, "Access denied")
	}
}

func TestReadFileRejectsOutsideAllowedDirs(t *testing.T) {
	outside := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	a := NewReadFile(t.TempDir())
	res := a.Execute(context.Background(), map[string]any{"path": outside})
	assert.Equal(t, models.StepFailed, res.Status)
}

func TestReadFileReadsAllowedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	a := NewReadFile(dir)
	res := a.Execute(context.Background(), map[string]any{"path": path})
	require.Equal(t, models.StepSuccess, res.Status, res.Error)
	assert.Equal(t, "hello world", res.Output["content"])
	assert.Equal(t, path, res.Output["path"])
}

func TestReadFileMissingInputs(t *testing.T) {
	a := NewReadFile(t.TempDir())

	res := a.Execute(context.Background(), map[string]any{})
	assert.Equal(t, models.StepFailed, res.Status)

	res = a.Execute(context.Background(), map[string]any{"path": filepath.Join(a.AllowedDirs[0], "missing.txt")})
	assert.Equal(t, models.StepFailed, res.Status)
	assert.Contains(t, res.Error, "File not found")
}

func TestAnalyzeTextBackfillsMissingKeys(t *testing.T) {
	mock := (&llm.MockOracle{}).Enqueue(`{"key_points": ["p1"]}`)
	a := &AnalyzeTextAction{Oracle: mock}

	res := a.Execute(context.Background(), map[string]any{"text": "some text"})
	require.Equal(t, models.StepSuccess, res.Status, res.Error)
	assert.Equal(t, []string{"p1"}, res.Output["key_points"])
	assert.Equal(t, []string{}, res.Output["themes"])
	assert.Equal(t, []string{}, res.Output["risks"])
}

func TestAnalyzeTextRejectsOversizedInput(t *testing.T) {
	a := &AnalyzeTextAction{Oracle: &llm.MockOracle{}}
	big := make([]byte, maxTextInput+1)
	for i := range big {
		big[i] = 'a'
	}
	res := a.Execute(context.Background(), map[string]any{"text": string(big)})
	assert.Equal(t, models.StepFailed, res.Status)
	assert.Contains(t, res.Error, "too long")
}

func TestSummarizeHappyPath(t *testing.T) {
	mock := (&llm.MockOracle{}).Enqueue("- point one\n- point two")
	s := &SummarizeAction{Oracle: mock}

	res := s.Execute(context.Background(), map[string]any{"text": "long body"})
	require.Equal(t, models.StepSuccess, res.Status)
	assert.Equal(t, "- point one\n- point two", res.Output["summary"])
}

func TestRespondUserAlwaysSucceeds(t *testing.T) {
	r := &RespondUserAction{}

	res := r.Execute(context.Background(), map[string]any{"message": "hi"})
	assert.Equal(t, models.StepSuccess, res.Status)
	assert.Equal(t, "hi", res.Output["message"])

	res = r.Execute(context.Background(), map[string]any{})
	assert.Equal(t, models.StepSuccess, res.Status)
}

func TestBuiltinRegistryNames(t *testing.T) {
	r := Builtin(&llm.MockOracle{})
	assert.Equal(t, []string{"analyze_text", "read_file", "respond_user", "summarize"}, r.Names())
}
