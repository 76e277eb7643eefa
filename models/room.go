package models

import (
	"time"

	"gorm.io/gorm"
)

// ルームの状態を表す定数
const (
	RoomStatusWaiting   = "waiting"   // 参加者待ち
	RoomStatusPlaying   = "playing"   // ラウンド進行中
	RoomStatusRevealing = "revealing" // 回答公開・判定待ち
	RoomStatusEnded     = "ended"     // ゲーム終了（履歴用に保持）
)

// ルーム作成から削除対象になるまでの固定TTL。アクティビティでは延長されない。
const RoomTTL = 30 * time.Minute

// 1ルームの最大参加人数
const MaxParticipants = 20

// ルームコードの文字数
const RoomCodeLength = 20

// Room モデルの定義
type Room struct {
	gorm.Model
	Code             string `gorm:"size:20;uniqueIndex;not null"` // 大文字英数字20文字
	Status           string `gorm:"not null"`
	CurrentRoundID   *uint
	ParticipantCount int       `gorm:"not null;default:0"` // ガード付きUPDATEで維持するカウンタ
	AnsweredCount    int       `gorm:"not null;default:0"` // 現在ラウンドの回答済み人数
	ExpiresAt        time.Time `gorm:"not null;index"`
}
