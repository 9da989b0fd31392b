package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/codebase-assistant/internal/storage"
)

type stubRetrieval struct {
	chunks     []*storage.ScoredChunk
	lastRepo   string
	calledBoth bool
}

func (s *stubRetrieval) Search(_ context.Context, repository, _ string, _ int) []*storage.ScoredChunk {
	s.lastRepo = repository
	return s.chunks
}

func (s *stubRetrieval) SearchBoth(_ context.Context, _ string, _ int) []*storage.ScoredChunk {
	s.calledBoth = true
	return s.chunks
}

func (s *stubRetrieval) Format(chunks []*storage.ScoredChunk) string {
	if len(chunks) == 0 {
		return ""
	}
	var b strings.Builder
	for i, c := range chunks {
		fmt.Fprintf(&b, "\n--- Code Chunk %d ---\nSource: %s\nContent:\n%s\n", i+1, c.Chunk.Source, c.Chunk.Content)
	}
	return b.String()
}

func (s *stubRetrieval) Repositories() (string, string) {
	return "ccp-vap", "ccp-execute"
}

// echoModel replies with the concatenated input so tests can inspect
// exactly what the orchestrator sent.
type echoModel struct{}

func (echoModel) Invoke(_ context.Context, messages []Message) (string, error) {
	var b strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&b, "[%s] %s\n", m.Role, m.Content)
	}
	return b.String(), nil
}

type failingModel struct{ err error }

func (f failingModel) Invoke(_ context.Context, _ []Message) (string, error) {
	return "", f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func scoredChunk(source, content string) *storage.ScoredChunk {
	return &storage.ScoredChunk{
		Chunk: &storage.Chunk{Source: source, Content: content},
		Score: 0.9,
	}
}

func TestRunIncludesRetrievedContext(t *testing.T) {
	retr := &stubRetrieval{chunks: []*storage.ScoredChunk{
		scoredChunk("/repo/controller/OrderController.java", "public class OrderController {}"),
	}}
	orch := NewOrchestrator(retr, echoModel{}, 5, testLogger())

	conv, err := orch.Run(context.Background(), "how are orders created?", TargetBoth)
	require.NoError(t, err)

	resp := conv.Response()
	assert.Contains(t, resp, "Here is relevant code from the codebase:")
	assert.Contains(t, resp, "OrderController.java")
	assert.Contains(t, resp, "how are orders created?")
	assert.Contains(t, resp, "codebase analysis assistant")
	assert.False(t, conv.Result.Failed)
	assert.True(t, retr.calledBoth)
}

func TestRunTargetsSingleRepository(t *testing.T) {
	retr := &stubRetrieval{}
	orch := NewOrchestrator(retr, echoModel{}, 5, testLogger())

	_, err := orch.Run(context.Background(), "query", "ccp-execute")
	require.NoError(t, err)

	assert.Equal(t, "ccp-execute", retr.lastRepo)
	assert.False(t, retr.calledBoth)
}

func TestRunUnknownTargetFallsBackToBoth(t *testing.T) {
	retr := &stubRetrieval{}
	orch := NewOrchestrator(retr, echoModel{}, 5, testLogger())

	_, err := orch.Run(context.Background(), "query", "no-such-repo")
	require.NoError(t, err)

	assert.True(t, retr.calledBoth)
}

func TestRunEmptyRetrievalOmitsContextMessage(t *testing.T) {
	retr := &stubRetrieval{}
	orch := NewOrchestrator(retr, echoModel{}, 5, testLogger())

	conv, err := orch.Run(context.Background(), "query", TargetBoth)
	require.NoError(t, err)

	assert.NotContains(t, conv.Response(), "Here is relevant code from the codebase:")
	for _, m := range conv.Messages {
		assert.NotContains(t, m.Content, "Here is relevant code")
	}
}

func TestRunEmbedsGenerationFailure(t *testing.T) {
	retr := &stubRetrieval{}
	model := failingModel{err: errors.New("request timed out")}
	orch := NewOrchestrator(retr, model, 5, testLogger())

	conv, err := orch.Run(context.Background(), "query", TargetBoth)
	require.NoError(t, err)

	assert.True(t, conv.Result.Failed)
	assert.Equal(t,
		"Sorry, I encountered an error while generating the response: request timed out",
		conv.Response())
}

func TestRunAppendsAssistantTurnOnSuccess(t *testing.T) {
	retr := &stubRetrieval{}
	orch := NewOrchestrator(retr, echoModel{}, 5, testLogger())

	conv, err := orch.Run(context.Background(), "query", TargetBoth)
	require.NoError(t, err)

	last := conv.Messages[len(conv.Messages)-1]
	assert.Equal(t, RoleAssistant, last.Role)
	assert.Equal(t, conv.Response(), last.Content)
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "INIT", StateInit.String())
	assert.Equal(t, "RETRIEVING", StateRetrieving.String())
	assert.Equal(t, "GENERATING", StateGenerating.String())
	assert.Equal(t, "DONE", StateDone.String())
}
