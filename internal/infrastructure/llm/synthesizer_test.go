package llm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SmartFeeds/internal/domain"
)

func TestSynthesizerEmptyRecordSkipsModel(t *testing.T) {
	chat := &fakeChat{}
	body, err := NewSynthesizer(chat, "", nil).Synthesize(context.Background(), domain.DailyRecord{Day: "2026-03-14"})
	require.NoError(t, err)
	assert.Contains(t, body, "Nothing notable today.")
	assert.Equal(t, 0, chat.calls)
}

func TestSynthesizerSendsItems(t *testing.T) {
	chat := &fakeChat{answer: "```markdown\n# Daily Digest - 2026-03-14\n\n## Go\n- x\n```"}
	record := domain.DailyRecord{Day: "2026-03-14", Items: []domain.AcceptedItem{
		{Title: "T1", URL: "https://a/1", SourceID: "hn", RelevanceNote: "r1"},
		{Title: "T2", URL: "https://a/2", SourceID: "rss", RelevanceNote: "r2", Summary: "s2"},
	}}

	body, err := NewSynthesizer(chat, "French", nil).Synthesize(context.Background(), record)
	require.NoError(t, err)
	assert.Equal(t, "# Daily Digest - 2026-03-14\n\n## Go\n- x\n", body)

	var sent []map[string]string
	require.NoError(t, json.Unmarshal([]byte(chat.last.User), &sent))
	require.Len(t, sent, 2)
	assert.Equal(t, "https://a/2", sent[1]["url"])
	assert.Equal(t, "s2", sent[1]["summary"])
	assert.Contains(t, chat.last.System, "French")
	assert.False(t, chat.last.JSON)
}

func TestSynthesizerEmptyAnswer(t *testing.T) {
	record := domain.DailyRecord{Day: "2026-03-14", Items: []domain.AcceptedItem{{URL: "https://a/1"}}}
	_, err := NewSynthesizer(&fakeChat{answer: "  "}, "", nil).Synthesize(context.Background(), record)
	assert.ErrorContains(t, err, "empty digest")
}
