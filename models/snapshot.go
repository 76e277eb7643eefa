package models

import "time"

// RoomSnapshot はコミット済みのルーム状態を購読者へ配信するためのビューです。
// 回答内容はrevealing/endedになるまで含めない（hasAnsweredフラグのみ見せる）。
type RoomSnapshot struct {
	RoomID       uint                  `json:"roomId"`
	Code         string                `json:"code"`
	Status       string                `json:"status"`
	Participants []ParticipantSnapshot `json:"participants"` // 入室順＝表示順
	CurrentRound *RoundSnapshot        `json:"currentRound,omitempty"`
	ExpiresAt    time.Time             `json:"expiresAt"`
}

type ParticipantSnapshot struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	IsHost      bool      `json:"isHost"`
	HasAnswered bool      `json:"hasAnswered"`
	JoinedAt    time.Time `json:"joinedAt"`
}

type RoundSnapshot struct {
	ID           uint             `json:"id"`
	RoundNumber  int              `json:"roundNumber"`
	TopicContent string           `json:"topicContent"`
	Status       string           `json:"status"`
	Judgment     *string          `json:"judgment"`
	Answers      []AnswerSnapshot `json:"answers,omitempty"` // reveal前は常に空
}

type AnswerSnapshot struct {
	ParticipantID   uint      `json:"participantId"`
	ParticipantName string    `json:"participantName"`
	Content         string    `json:"content"`
	SubmittedAt     time.Time `json:"submittedAt"`
}
