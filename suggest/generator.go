package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// AnswerInput は分析対象の回答1件です。
type AnswerInput struct {
	ParticipantName string `json:"participantName"`
	Content         string `json:"content"`
}

// Request は提案生成への入力です。
type Request struct {
	Answers      []AnswerInput `json:"answers"`
	TopicContent string        `json:"topicContent"`
	RoundNumber  int           `json:"roundNumber"`
	RoomCode     string        `json:"roomCode"`
}

// Suggestion はホスト向けの会話プロンプト1件です。Priorityは1〜5。
type Suggestion struct {
	Type     string `json:"type"`
	Target   string `json:"target,omitempty"`
	Message  string `json:"message"`
	Priority int    `json:"priority"`
	Category string `json:"category"`
}

// Result は提案生成の出力です。
type Result struct {
	Suggestions       []Suggestion `json:"suggestions"`
	AnalysisTimestamp time.Time    `json:"analysisTimestamp"`
	TotalAnswers      int          `json:"totalAnswers"`
	UniqueAnswers     int          `json:"uniqueAnswers"`
	CommonPatterns    []string     `json:"commonPatterns"`
	Degraded          bool         `json:"degraded"` // 上流障害でローカル生成にフォールバックしたか
}

// Generator は回答からホスト向け提案を生成します。
type Generator struct {
	upstreamURL string
	client      *http.Client
	logger      *zap.Logger
}

const upstreamTimeout = 10 * time.Second

func NewGenerator(upstreamURL string, logger *zap.Logger) *Generator {
	return &Generator{
		upstreamURL: upstreamURL,
		client:      &http.Client{Timeout: upstreamTimeout},
		logger:      logger,
	}
}

// Generate は上流の生成APIを呼び、失敗した場合はローカルの
// フォールバック提案に切り替えます。ラウンド進行へエラーは伝播させない。
func (g *Generator) Generate(ctx context.Context, req Request) *Result {
	if g.upstreamURL != "" {
		result, err := g.callUpstream(ctx, req)
		if err == nil {
			return result
		}
		g.logger.Warn("提案生成の上流呼び出しに失敗したためフォールバックします", zap.Error(err))
	}
	return g.fallback(req)
}

func (g *Generator) callUpstream(ctx context.Context, req Request) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.upstreamURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	if len(result.Suggestions) == 0 {
		return nil, fmt.Errorf("upstream returned no suggestions")
	}
	if result.AnalysisTimestamp.IsZero() {
		result.AnalysisTimestamp = time.Now()
	}
	return &result, nil
}

// fallback は回答の一致状況からローカルで提案セットを組み立てます。
func (g *Generator) fallback(req Request) *Result {
	counts := make(map[string]int)
	order := []string{}
	for _, a := range req.Answers {
		key := normalize(a.Content)
		if counts[key] == 0 {
			order = append(order, key)
		}
		counts[key]++
	}

	patterns := []string{}
	maxCount := 0
	for _, key := range order {
		if counts[key] >= 2 {
			patterns = append(patterns, key)
		}
		if counts[key] > maxCount {
			maxCount = counts[key]
		}
	}

	suggestions := []Suggestion{}
	switch {
	case len(req.Answers) == 0:
		suggestions = append(suggestions, Suggestion{
			Type:     "prompt",
			Message:  "まだ回答がありません。みんなに回答を促してみましょう。",
			Priority: 3,
			Category: "progress",
		})
	case maxCount == len(req.Answers) && len(req.Answers) >= 2:
		suggestions = append(suggestions, Suggestion{
			Type:     "celebrate",
			Message:  "全員の回答が一致しています！一致の判定はいかがですか？",
			Priority: 5,
			Category: "judgment",
		})
	case len(patterns) > 0:
		suggestions = append(suggestions, Suggestion{
			Type:     "discuss",
			Target:   patterns[0],
			Message:  fmt.Sprintf("「%s」と答えた人が複数います。理由を聞いてみましょう。", patterns[0]),
			Priority: 4,
			Category: "conversation",
		})
	default:
		suggestions = append(suggestions, Suggestion{
			Type:     "discuss",
			Message:  "回答がバラバラです。それぞれの発想の違いを話題にしてみましょう。",
			Priority: 3,
			Category: "conversation",
		})
	}
	suggestions = append(suggestions, Suggestion{
		Type:     "next",
		Message:  fmt.Sprintf("お題「%s」の振り返りが済んだら次のラウンドへ進めます。", req.TopicContent),
		Priority: 1,
		Category: "progress",
	})

	return &Result{
		Suggestions:       suggestions,
		AnalysisTimestamp: time.Now(),
		TotalAnswers:      len(req.Answers),
		UniqueAnswers:     len(order),
		CommonPatterns:    patterns,
		Degraded:          true,
	}
}

func normalize(content string) string {
	return strings.ToLower(strings.TrimSpace(content))
}
