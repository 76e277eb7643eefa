package game

import (
	"errors"
	"time"

	"icchiserver/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SubmitResult は回答記録の戻り値です。
type SubmitResult struct {
	Revealed bool `json:"revealed"` // この回答で全員分が揃い公開に移行したか
}

// StartGame は第1ラウンドを開始します。ホスト専用。
// ラウンド作成・フラグのリセット・状態遷移は1トランザクションでコミットする。
func (s *Service) StartGame(roomID uint, actorID uint) error {
	err := s.runTx(func(tx *gorm.DB) error {
		if _, err := requireHost(tx, roomID, actorID); err != nil {
			return err
		}

		// 状態と人数の判定をガード付きUPDATEで原子的に行う
		result := tx.Model(&models.Room{}).
			Where("id = ? AND status = ? AND participant_count >= 2", roomID, models.RoomStatusWaiting).
			Updates(map[string]interface{}{
				"status":         models.RoomStatusPlaying,
				"answered_count": 0,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			room, err := loadRoom(tx, roomID)
			if err != nil {
				return err
			}
			if room.Status != models.RoomStatusWaiting {
				return ErrAlreadyStarted
			}
			return ErrInsufficientParticipants
		}

		return s.createRound(tx, roomID, 1, pickTopic())
	})
	if err != nil {
		return err
	}

	s.hub.Publish(roomID)
	s.logger.Info("ゲームを開始しました", zap.Uint("roomID", roomID))
	return nil
}

// createRound はラウンドを作成し、現在ラウンドの差し替えと
// 全参加者のhasAnsweredリセットを行います（トランザクション内で使用）。
func (s *Service) createRound(tx *gorm.DB, roomID uint, number int, topic string) error {
	round := models.Round{
		RoomID:       roomID,
		RoundNumber:  number,
		TopicContent: topic,
		Status:       models.RoundStatusActive,
	}
	if err := tx.Create(&round).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.Room{}).Where("id = ?", roomID).
		Update("current_round_id", round.ID).Error; err != nil {
		return err
	}
	return tx.Model(&models.Participant{}).Where("room_id = ?", roomID).
		Update("has_answered", false).Error
}

// SubmitAnswer は回答を記録します。最後の1人の回答で全員分が揃った場合、
// 同じコミットの中でrevealingへ遷移する。
func (s *Service) SubmitAnswer(roomID uint, participantID uint, content string) (*SubmitResult, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}

	result := &SubmitResult{}
	err := s.runTx(func(tx *gorm.DB) error {
		room, err := loadRoom(tx, roomID)
		if err != nil {
			return err
		}
		if room.Status != models.RoomStatusPlaying || room.CurrentRoundID == nil {
			return ErrRoundNotActive
		}

		// ラウンド開始時点の名簿メンバーのみ回答できる
		// （入室はwaiting中のみなので、現在の名簿＝ラウンド開始時の名簿）
		var participant models.Participant
		if err := tx.First(&participant, participantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotMember
			}
			return err
		}
		if participant.RoomID != roomID {
			return ErrNotMember
		}

		// 二重回答はフラグへのガード付きUPDATEで弾く
		flip := tx.Model(&models.Participant{}).
			Where("id = ? AND has_answered = ?", participantID, false).
			Update("has_answered", true)
		if flip.Error != nil {
			return flip.Error
		}
		if flip.RowsAffected == 0 {
			return ErrAlreadyAnswered
		}

		answer := models.Answer{
			RoundID:       *room.CurrentRoundID,
			ParticipantID: participantID,
			Content:       content,
			SubmittedAt:   time.Now(),
		}
		if err := tx.Create(&answer).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrAlreadyAnswered
			}
			return err
		}

		// 回答数カウンタの加算と全員回答時の遷移を単一UPDATEで行う。
		// 最後の2人が同時に回答しても、行ロックで直列化されるため
		// 双方が遷移をスキップすることはない
		advance := tx.Model(&models.Room{}).
			Where("id = ? AND status = ?", roomID, models.RoomStatusPlaying).
			Updates(map[string]interface{}{
				"answered_count": gorm.Expr("answered_count + 1"),
				"status": gorm.Expr(
					"CASE WHEN answered_count + 1 >= participant_count THEN ? ELSE status END",
					models.RoomStatusRevealing),
			})
		if advance.Error != nil {
			return advance.Error
		}
		if advance.RowsAffected == 0 {
			// 強制公開と競合した。回答ごとロールバックする
			return ErrRoundNotActive
		}

		var updated models.Room
		if err := tx.First(&updated, roomID).Error; err != nil {
			return err
		}
		result.Revealed = updated.Status == models.RoomStatusRevealing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hub.Publish(roomID)
	s.logger.Info("回答を記録しました",
		zap.Uint("roomID", roomID),
		zap.Uint("participantID", participantID),
		zap.Bool("revealed", result.Revealed))
	return result, nil
}

// ChangeTopicIfNoAnswers はお題を差し替えます。ホスト専用で、
// まだ1件も回答がない場合のみ許可。ラウンド番号は変わらない。
func (s *Service) ChangeTopicIfNoAnswers(roomID uint, actorID uint) (string, error) {
	var newTopic string
	err := s.runTx(func(tx *gorm.DB) error {
		if _, err := requireHost(tx, roomID, actorID); err != nil {
			return err
		}
		room, err := loadRoom(tx, roomID)
		if err != nil {
			return err
		}
		if room.Status != models.RoomStatusPlaying {
			return ErrRoundNotActive
		}
		round, err := loadCurrentRound(tx, room)
		if err != nil {
			return err
		}

		newTopic = pickTopicExcluding(round.TopicContent)

		// 回答ゼロの判定と差し替えを単一UPDATEで行う
		result := tx.Model(&models.Round{}).
			Where("id = ? AND status = ? AND NOT EXISTS (SELECT 1 FROM answers WHERE answers.round_id = rounds.id AND answers.deleted_at IS NULL)",
				round.ID, models.RoundStatusActive).
			Update("topic_content", newTopic)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAnswersAlreadySubmitted
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.hub.Publish(roomID)
	s.logger.Info("お題を変更しました", zap.Uint("roomID", roomID))
	return newTopic, nil
}

// ForceRevealAnswers は未回答者がいても公開フェーズへ移行します。ホスト専用。
// 未回答者の回答は合成しない（公開ビューに単に存在しない）。
func (s *Service) ForceRevealAnswers(roomID uint, actorID uint) error {
	err := s.runTx(func(tx *gorm.DB) error {
		if _, err := requireHost(tx, roomID, actorID); err != nil {
			return err
		}
		room, err := loadRoom(tx, roomID)
		if err != nil {
			return err
		}
		if room.Status != models.RoomStatusPlaying {
			return ErrRoundNotActive
		}
		round, err := loadCurrentRound(tx, room)
		if err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.Answer{}).Where("round_id = ?", round.ID).Count(&count).Error; err != nil {
			return err
		}
		if count < 2 {
			return ErrInsufficientAnswers
		}

		result := tx.Model(&models.Room{}).
			Where("id = ? AND status = ?", roomID, models.RoomStatusPlaying).
			Update("status", models.RoomStatusRevealing)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrRoundNotActive
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.hub.Publish(roomID)
	s.logger.Info("回答を強制公開しました", zap.Uint("roomID", roomID))
	return nil
}
