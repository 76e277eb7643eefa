package models

import (
	"time"

	"gorm.io/gorm"
)

// ラウンドの状態を表す定数
const (
	RoundStatusActive    = "active"
	RoundStatusCompleted = "completed"
)

// ホストの判定値
const (
	JudgmentMatch   = "match"
	JudgmentNoMatch = "no_match"
)

// Round モデルの定義。RoundNumberはルーム内で1始まりの連番（再利用しない）。
type Round struct {
	gorm.Model
	RoomID       uint   `gorm:"not null;index;uniqueIndex:idx_rounds_room_number,priority:1"`
	RoundNumber  int    `gorm:"not null;uniqueIndex:idx_rounds_room_number,priority:2"`
	TopicContent string `gorm:"not null"`
	Status       string `gorm:"not null"`
	Judgment     *string // 一度セットされたら不変。未判定はNULL
}

// Answer モデルの定義。1ラウンド1参加者につき1件。
type Answer struct {
	gorm.Model
	RoundID       uint   `gorm:"not null;index;uniqueIndex:idx_answers_round_participant,priority:1"`
	ParticipantID uint   `gorm:"not null;uniqueIndex:idx_answers_round_participant,priority:2"`
	Content       string `gorm:"not null"`
	SubmittedAt   time.Time
}
