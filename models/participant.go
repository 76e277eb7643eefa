package models

import (
	"time"

	"gorm.io/gorm"
)

// Participant モデルの定義。同一ルーム内で名前は重複不可（複合ユニークインデックス）。
type Participant struct {
	gorm.Model
	RoomID      uint   `gorm:"not null;index;uniqueIndex:idx_participants_room_name,priority:1"`
	Name        string `gorm:"size:20;not null;uniqueIndex:idx_participants_room_name,priority:2"`
	IsHost      bool   `gorm:"not null;default:false"`
	HasAnswered bool   `gorm:"not null;default:false"` // ラウンド開始ごとにリセット
	JoinedAt    time.Time
}
