package models

import (
	"time"

	"gorm.io/gorm"
)

// GameHistory 終了したゲームのアーカイブ。ルーム本体が掃除で消えても残る。
type GameHistory struct {
	gorm.Model
	RoomID           uint   `gorm:"not null;index"`
	RoomCode         string `gorm:"size:20;not null"`
	ParticipantCount int    `gorm:"not null"`
	RoundCount       int    `gorm:"not null"`
	EndedAt          time.Time
}

// HistoryRound アーカイブされたラウンド情報
type HistoryRound struct {
	gorm.Model
	GameHistoryID uint `gorm:"not null;index"`
	RoundID       uint `gorm:"not null;index"`
	RoundNumber   int  `gorm:"not null"`
	TopicContent  string
	AnsweredCount int
	Judgment      *string
}

// GameAnswer アーカイブされた回答。参加者は名前で記録する（本体は掃除で消えるため）。
type GameAnswer struct {
	gorm.Model
	GameHistoryID   uint `gorm:"not null;index"`
	RoundID         uint `gorm:"not null;index"`
	ParticipantName string
	Content         string
	SubmittedAt     time.Time
}
