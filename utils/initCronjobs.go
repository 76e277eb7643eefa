package utils

import (
	"time"

	"icchiserver/broadcast"
	"icchiserver/models"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 1回の掃除で処理するルーム数の上限
const sweepBatchSize = 50

// CronCleaner はTTL超過ルームの掃除ジョブを起動します。
// TTLは作成時刻から固定30分で、アクティビティでは延長されない。
func CronCleaner(db *gorm.DB, hub *broadcast.Hub, logger *zap.Logger) {
	c := cron.New()

	// TTL超過ルームを削除するジョブ（毎分実行）
	c.AddFunc("@every 1m", func() {
		deleted, err := SweepExpiredRooms(db, hub, logger, sweepBatchSize)
		if err != nil {
			logger.Error("期限切れルームの掃除に失敗しました", zap.Error(err))
			return
		}
		if deleted > 0 {
			logger.Info("期限切れルームの掃除完了", zap.Int("rooms_deleted", deleted))
		}
	})

	c.Start()
}

// SweepExpiredRooms はexpires_atを過ぎたルームを上限件数まで削除します。
// 子レコード（回答・ラウンド・参加者）を先に消してからルーム本体を消す。
// 冪等で、途中で中断されても未処理分は次回の実行で拾われる。
func SweepExpiredRooms(db *gorm.DB, hub *broadcast.Hub, logger *zap.Logger, batchSize int) (int, error) {
	expiredRoomIDs := []uint{}
	if err := db.Model(&models.Room{}).
		Where("expires_at < ?", time.Now()).
		Order("expires_at ASC").
		Limit(batchSize).
		Pluck("id", &expiredRoomIDs).Error; err != nil {
		return 0, err
	}

	deleted := 0
	for _, roomID := range expiredRoomIDs {
		roundIDs := []uint{}
		if err := db.Model(&models.Round{}).Where("room_id = ?", roomID).
			Pluck("id", &roundIDs).Error; err != nil {
			logger.Error("ラウンドIDの取得に失敗しました", zap.Uint("roomID", roomID), zap.Error(err))
			continue
		}

		if len(roundIDs) > 0 {
			if err := db.Unscoped().Where("round_id IN ?", roundIDs).Delete(&models.Answer{}).Error; err != nil {
				logger.Error("回答の削除に失敗しました", zap.Uint("roomID", roomID), zap.Error(err))
				continue
			}
			if err := db.Unscoped().Where("room_id = ?", roomID).Delete(&models.Round{}).Error; err != nil {
				logger.Error("ラウンドの削除に失敗しました", zap.Uint("roomID", roomID), zap.Error(err))
				continue
			}
		}
		if err := db.Unscoped().Where("room_id = ?", roomID).Delete(&models.Participant{}).Error; err != nil {
			logger.Error("参加者の削除に失敗しました", zap.Uint("roomID", roomID), zap.Error(err))
			continue
		}
		if err := db.Unscoped().Delete(&models.Room{}, roomID).Error; err != nil {
			logger.Error("ルームの削除に失敗しました", zap.Uint("roomID", roomID), zap.Error(err))
			continue
		}

		// 購読者には終端イベントを送って購読を閉じる
		if hub != nil {
			hub.NotifyClosed(roomID, broadcast.EventExpired)
		}
		deleted++
	}

	return deleted, nil
}
