package automator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTranscriptClassifiesByRole(t *testing.T) {
	rows := []rawRow{
		{RowID: "r1", Kind: "user", Text: "write me a function"},
		{RowID: "r2", Kind: "assistant", Text: "sure, here it is"},
		{RowID: "r3", Kind: "user", Text: "now add tests"},
		{RowID: "r4", Kind: "assistant", Text: "done"},
		{RowID: "r5", Kind: "user", Text: "thanks"},
	}

	messages := buildTranscript(rows)

	require.Len(t, messages, 5)
	assert.Equal(t, []ChatMessage{
		{Entity: "user", Message: "write me a function"},
		{Entity: "assistant", Message: "sure, here it is"},
		{Entity: "user", Message: "now add tests"},
		{Entity: "assistant", Message: "done"},
		{Entity: "user", Message: "thanks"},
	}, messages)
}

func TestBuildTranscriptDeduplicatesByRowID(t *testing.T) {
	// Identical text on distinct rows must survive; repeated row ids must
	// not, even when the repeat carries different text.
	rows := []rawRow{
		{RowID: "r1", Kind: "user", Text: "ping"},
		{RowID: "r2", Kind: "user", Text: "ping"},
		{RowID: "r1", Kind: "user", Text: "ping again"},
	}

	messages := buildTranscript(rows)

	require.Len(t, messages, 2)
	assert.Equal(t, "ping", messages[0].Message)
	assert.Equal(t, "ping", messages[1].Message)
}

func TestBuildTranscriptSkipsStructuralRows(t *testing.T) {
	rows := []rawRow{
		{RowID: "r1", Kind: "user", Text: "hello"},
		{RowID: "r2", Kind: "", Text: "separator"},
		{RowID: "r3", Kind: "header", Text: "Today"},
		{RowID: "r4", Kind: "assistant", Text: "hi"},
	}

	messages := buildTranscript(rows)

	require.Len(t, messages, 2)
	assert.Equal(t, "user", messages[0].Entity)
	assert.Equal(t, "assistant", messages[1].Entity)
}

func TestBuildTranscriptEmptyInput(t *testing.T) {
	messages := buildTranscript(nil)
	assert.NotNil(t, messages)
	assert.Empty(t, messages)
}

func TestBuildTranscriptIgnoresMissingRowID(t *testing.T) {
	rows := []rawRow{
		{RowID: "", Kind: "user", Text: "orphan"},
		{RowID: "r1", Kind: "user", Text: "kept"},
	}

	messages := buildTranscript(rows)

	require.Len(t, messages, 1)
	assert.Equal(t, "kept", messages[0].Message)
}

func TestBuildTranscriptIdempotent(t *testing.T) {
	rows := []rawRow{
		{RowID: "r1", Kind: "user", Text: "a"},
		{RowID: "r2", Kind: "assistant", Text: "b"},
	}

	first := buildTranscript(rows)
	second := buildTranscript(rows)

	assert.Equal(t, first, second)
}

func TestExtractionScriptEmbedsSelectorContract(t *testing.T) {
	script := extractionScript()

	for _, sel := range []string{
		selectorChatSession,
		selectorScrollable,
		selectorRowsContainer,
		selectorListRow,
		selectorUserMessage,
		selectorAssistantReply,
	} {
		assert.Contains(t, script, sel)
	}
	// The termination ceiling must be present alongside the unchanged-scroll
	// streak so the loop cannot run forever under scroll jitter.
	assert.Contains(t, script, "unchanged < 3")
	assert.Contains(t, script, "ticks < 600")
}
