package game

import (
	"context"
	"errors"
	"strings"
	"time"

	"icchiserver/broadcast"
	"icchiserver/history"
	"icchiserver/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	storeTimeout  = 5 * time.Second
	txMaxRetries  = 3
	retryInterval = 100 * time.Millisecond
)

// Service はルーム・名簿・ラウンド・判定のコマンドを処理します。
// ストアのハンドルは構築時に注入する（グローバルには持たない）。
type Service struct {
	db       *gorm.DB
	logger   *zap.Logger
	hub      *broadcast.Hub
	recorder *history.Recorder
}

func NewService(db *gorm.DB, logger *zap.Logger, hub *broadcast.Hub, recorder *history.Recorder) *Service {
	return &Service{db: db, logger: logger, hub: hub, recorder: recorder}
}

// runTx は1コマンド分の読み書きを単一トランザクションとして実行します。
// 失敗したトランザクションは部分的な変更を一切残さない。
// 一時的エラーのみ既定回数までリトライし、超えたらErrTransientを返す。
func (s *Service) runTx(fn func(tx *gorm.DB) error) error {
	var err error
	for i := 0; i < txMaxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		err = s.db.WithContext(ctx).Transaction(fn)
		cancel()
		if !isTransient(err) {
			return err
		}
		s.logger.Warn("一時的エラーのためトランザクションをリトライします", zap.Int("attempt", i+1), zap.Error(err))
		time.Sleep(retryInterval * time.Duration(i+1))
	}
	return ErrTransient
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := err.Error()
	// シリアライズ失敗（postgres 40001）とロック待ちタイムアウト
	return strings.Contains(msg, "40001") ||
		strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "database is locked")
}

// isDuplicateKey はユニーク制約違反かどうかを判定します。
// TranslateError非対応のドライバ向けにメッセージ判定も併用する。
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// loadRoom はルームを取得します。TTL超過済みのルームは存在しない扱い。
func loadRoom(tx *gorm.DB, roomID uint) (*models.Room, error) {
	var room models.Room
	if err := tx.First(&room, roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if time.Now().After(room.ExpiresAt) {
		return nil, ErrRoomNotFound
	}
	return &room, nil
}

// requireHost は実行者が現在の名簿上のホストであることを確認します。
// クライアントが主張するフラグや過去の結果は信用しない。
func requireHost(tx *gorm.DB, roomID uint, actorID uint) (*models.Participant, error) {
	var p models.Participant
	if err := tx.First(&p, actorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotMember
		}
		return nil, err
	}
	if p.RoomID != roomID {
		return nil, ErrNotMember
	}
	if !p.IsHost {
		return nil, ErrNotHost
	}
	return &p, nil
}

// loadCurrentRound は進行中ラウンドを取得します。
func loadCurrentRound(tx *gorm.DB, room *models.Room) (*models.Round, error) {
	if room.CurrentRoundID == nil {
		return nil, ErrRoundNotFound
	}
	var round models.Round
	if err := tx.First(&round, *room.CurrentRoundID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	return &round, nil
}

// Snapshot は現在のルーム状態を購読と同じフィルタで返します（初回描画用）。
func (s *Service) Snapshot(roomID uint) (*models.RoomSnapshot, error) {
	snapshot, err := broadcast.BuildSnapshot(s.db, roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if time.Now().After(snapshot.ExpiresAt) {
		return nil, ErrRoomNotFound
	}
	return snapshot, nil
}
