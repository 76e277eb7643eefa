package suggest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleRequest() Request {
	return Request{
		Answers: []AnswerInput{
			{ParticipantName: "ホスト太郎", Content: "カレーライス"},
			{ParticipantName: "ぼぶ", Content: "カレーライス"},
			{ParticipantName: "きゃろる", Content: "寿司"},
		},
		TopicContent: "好きな食べ物",
		RoundNumber:  1,
		RoomCode:     "TESTROOM000000000001",
	}
}

func TestGenerateUsesUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "好きな食べ物", req.TopicContent)

		json.NewEncoder(w).Encode(Result{
			Suggestions: []Suggestion{
				{Type: "discuss", Message: "カレー派が多数です", Priority: 4, Category: "conversation"},
			},
			TotalAnswers:  3,
			UniqueAnswers: 2,
		})
	}))
	defer upstream.Close()

	g := NewGenerator(upstream.URL, zap.NewNop())
	result := g.Generate(context.Background(), sampleRequest())

	require.Len(t, result.Suggestions, 1)
	assert.Equal(t, "カレー派が多数です", result.Suggestions[0].Message)
	assert.False(t, result.Degraded)
	assert.False(t, result.AnalysisTimestamp.IsZero())
}

func TestGenerateFallsBackOnUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer upstream.Close()

	g := NewGenerator(upstream.URL, zap.NewNop())
	result := g.Generate(context.Background(), sampleRequest())

	// 上流障害でもエラーにはならず、劣化モードの提案が返る
	assert.True(t, result.Degraded)
	assert.NotEmpty(t, result.Suggestions)
	assert.Equal(t, 3, result.TotalAnswers)
	assert.Equal(t, 2, result.UniqueAnswers)
	assert.Equal(t, []string{"カレーライス"}, result.CommonPatterns)
}

func TestGenerateFallsBackOnUnreachableUpstream(t *testing.T) {
	g := NewGenerator("http://127.0.0.1:1/suggest", zap.NewNop())
	result := g.Generate(context.Background(), sampleRequest())
	assert.True(t, result.Degraded)
	assert.NotEmpty(t, result.Suggestions)
}

func TestGenerateWithoutUpstreamURL(t *testing.T) {
	g := NewGenerator("", zap.NewNop())
	result := g.Generate(context.Background(), sampleRequest())
	assert.True(t, result.Degraded)
}

func TestFallbackAllMatched(t *testing.T) {
	g := NewGenerator("", zap.NewNop())
	result := g.Generate(context.Background(), Request{
		Answers: []AnswerInput{
			{ParticipantName: "ホスト太郎", Content: "カレーライス"},
			{ParticipantName: "ぼぶ", Content: "カレーライス "}, // 前後空白は正規化される
		},
		TopicContent: "好きな食べ物",
	})

	require.NotEmpty(t, result.Suggestions)
	assert.Equal(t, "celebrate", result.Suggestions[0].Type)
	assert.Equal(t, 5, result.Suggestions[0].Priority)
	assert.Equal(t, 1, result.UniqueAnswers)
}

func TestFallbackNoAnswers(t *testing.T) {
	g := NewGenerator("", zap.NewNop())
	result := g.Generate(context.Background(), Request{TopicContent: "好きな食べ物"})

	require.NotEmpty(t, result.Suggestions)
	assert.Equal(t, "prompt", result.Suggestions[0].Type)
	assert.Zero(t, result.TotalAnswers)
	assert.Empty(t, result.CommonPatterns)
}

func TestFallbackAllDifferent(t *testing.T) {
	g := NewGenerator("", zap.NewNop())
	result := g.Generate(context.Background(), Request{
		Answers: []AnswerInput{
			{ParticipantName: "ホスト太郎", Content: "カレーライス"},
			{ParticipantName: "ぼぶ", Content: "寿司"},
			{ParticipantName: "きゃろる", Content: "ラーメン"},
		},
		TopicContent: "好きな食べ物",
	})

	require.NotEmpty(t, result.Suggestions)
	assert.Equal(t, "discuss", result.Suggestions[0].Type)
	assert.Empty(t, result.CommonPatterns)
	assert.Equal(t, 3, result.UniqueAnswers)
}
