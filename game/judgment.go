package game

import (
	"icchiserver/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SubmitJudgment はホストの判定を記録します。
// 判定済みのラウンドへの再判定はエラーにせず既存の判定を返す
// （ホストの二重クリックを許容する）。判定は一度セットされたら不変。
func (s *Service) SubmitJudgment(roomID uint, actorID uint, verdict string) (string, error) {
	if err := validateVerdict(verdict); err != nil {
		return "", err
	}

	recorded := verdict
	newlySet := false
	err := s.runTx(func(tx *gorm.DB) error {
		if _, err := requireHost(tx, roomID, actorID); err != nil {
			return err
		}
		room, err := loadRoom(tx, roomID)
		if err != nil {
			return err
		}
		if room.Status != models.RoomStatusRevealing {
			return ErrRoomNotRevealing
		}
		round, err := loadCurrentRound(tx, room)
		if err != nil {
			return err
		}

		// 未判定の場合のみセットする。ガード付きUPDATEなので同時判定でも
		// 先勝ちで確定し、後続は既存値を読むだけになる
		result := tx.Model(&models.Round{}).
			Where("id = ? AND judgment IS NULL", round.ID).
			Update("judgment", verdict)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var current models.Round
			if err := tx.First(&current, round.ID).Error; err != nil {
				return err
			}
			if current.Judgment != nil {
				recorded = *current.Judgment
			}
			return nil
		}
		newlySet = true
		return nil
	})
	if err != nil {
		return "", err
	}

	if newlySet {
		s.hub.Publish(roomID)
		s.logger.Info("判定を記録しました", zap.Uint("roomID", roomID), zap.String("verdict", recorded))
	}
	return recorded, nil
}

// StartNextRound は現在のラウンドをアーカイブして次のラウンドを開始します。
// ホスト専用。公開フェーズかつ判定済みの場合のみ進行できる。
func (s *Service) StartNextRound(roomID uint, actorID uint) (int, error) {
	var nextNumber int
	err := s.runTx(func(tx *gorm.DB) error {
		if _, err := requireHost(tx, roomID, actorID); err != nil {
			return err
		}
		room, err := loadRoom(tx, roomID)
		if err != nil {
			return err
		}
		if room.Status != models.RoomStatusRevealing {
			return ErrRoomNotRevealing
		}
		round, err := loadCurrentRound(tx, room)
		if err != nil {
			return err
		}
		if round.Judgment == nil {
			return ErrJudgmentRequired
		}

		// 先にルーム行をガード付きで遷移させ、二重進行を直列化する
		result := tx.Model(&models.Room{}).
			Where("id = ? AND status = ?", roomID, models.RoomStatusRevealing).
			Updates(map[string]interface{}{
				"status":         models.RoomStatusPlaying,
				"answered_count": 0,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrRoomNotRevealing
		}

		if err := tx.Model(&models.Round{}).Where("id = ?", round.ID).
			Update("status", models.RoundStatusCompleted).Error; err != nil {
			return err
		}

		// ラウンド番号は厳密に+1。(room_id, round_number)のユニーク
		// インデックスが番号の再利用を防ぐ
		nextNumber = round.RoundNumber + 1
		return s.createRound(tx, roomID, nextNumber, pickTopic())
	})
	if err != nil {
		return 0, err
	}

	s.hub.Publish(roomID)
	s.logger.Info("次のラウンドを開始しました", zap.Uint("roomID", roomID), zap.Int("roundNumber", nextNumber))
	return nextNumber, nil
}

// EndGame はゲームを終了します。ホスト専用。endedは終端状態で、
// 以降のラウンド・名簿の変更は受け付けない。履歴のアーカイブは
// ベストエフォートの副作用であり、終了の成立条件ではない。
func (s *Service) EndGame(roomID uint, actorID uint) error {
	alreadyEnded := false
	err := s.runTx(func(tx *gorm.DB) error {
		if _, err := requireHost(tx, roomID, actorID); err != nil {
			return err
		}

		result := tx.Model(&models.Room{}).
			Where("id = ? AND status = ?", roomID, models.RoomStatusRevealing).
			Update("status", models.RoomStatusEnded)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			room, err := loadRoom(tx, roomID)
			if err != nil {
				return err
			}
			if room.Status == models.RoomStatusEnded {
				// 二重終了は冪等に成功させる
				alreadyEnded = true
				return nil
			}
			return ErrRoomNotRevealing
		}

		// 現在ラウンドを完了扱いにする
		room, err := loadRoom(tx, roomID)
		if err != nil {
			return err
		}
		if room.CurrentRoundID != nil {
			if err := tx.Model(&models.Round{}).Where("id = ?", *room.CurrentRoundID).
				Update("status", models.RoundStatusCompleted).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if alreadyEnded {
		return nil
	}

	// アーカイブは非同期のベストエフォート。失敗してもゲーム終了は成立済み
	go s.recorder.ArchiveRoom(roomID)

	s.hub.Publish(roomID)
	s.logger.Info("ゲームを終了しました", zap.Uint("roomID", roomID))
	return nil
}
