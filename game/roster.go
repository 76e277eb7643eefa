package game

import (
	"errors"
	"time"

	"icchiserver/auth"
	"icchiserver/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// JoinResult は入室処理の戻り値です。
type JoinResult struct {
	RoomID        uint   `json:"roomId"`
	ParticipantID uint   `json:"participantId"`
	Token         string `json:"token"`
	Rejoined      bool   `json:"rejoined"`
}

// JoinRoom は入室または再入室を処理します。
// 提示されたトークンが同じ名前の名簿エントリに対応していれば再入室
// （ルーム状態に関係なく許可、名簿は変更しない）。名前が違えばAuthMismatch。
// それ以外は新規入室として扱う。
func (s *Service) JoinRoom(code string, name string, tokenString string) (*JoinResult, error) {
	if err := validateRoomCode(code); err != nil {
		return nil, err
	}
	room, err := s.findRoomByCode(code)
	if err != nil {
		return nil, err
	}

	// 再入室判定。無効・期限切れトークンは無視して新規入室にフォールバックする
	if tokenString != "" {
		claims, parseErr := auth.ParseToken(tokenString)
		if parseErr == nil && claims.RoomID == room.ID {
			var existing models.Participant
			findErr := s.db.First(&existing, claims.ParticipantID).Error
			if findErr == nil && existing.RoomID == room.ID {
				if existing.Name != name {
					return nil, ErrAuthMismatch
				}
				s.logger.Info("再入室しました", zap.Uint("roomID", room.ID), zap.Uint("participantID", existing.ID))
				return &JoinResult{
					RoomID:        room.ID,
					ParticipantID: existing.ID,
					Token:         tokenString,
					Rejoined:      true,
				}, nil
			}
		}
	}

	if err := validateName(name); err != nil {
		return nil, err
	}

	participant := models.Participant{
		RoomID:   room.ID,
		Name:     name,
		JoinedAt: time.Now(),
	}

	err = s.runTx(func(tx *gorm.DB) error {
		// 定員と状態のチェックは行カウンタへのガード付きUPDATEで原子的に行う。
		// 読み取り後の書き込みでは同名・同時入室の競合を防げない
		result := tx.Model(&models.Room{}).
			Where("id = ? AND status = ? AND participant_count < ?",
				room.ID, models.RoomStatusWaiting, models.MaxParticipants).
			Update("participant_count", gorm.Expr("participant_count + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var current models.Room
			if err := tx.First(&current, room.ID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrRoomNotFound
				}
				return err
			}
			if current.Status != models.RoomStatusWaiting {
				return ErrGameAlreadyStarted
			}
			return ErrRoomFull
		}

		// 名前の一意性は複合ユニークインデックスが保証する。
		// 同名の同時入室はちょうど一方だけがここで弾かれる
		if err := tx.Create(&participant).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrNameTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	token, err := auth.GenerateToken(participant.ID, room.ID, participant.Name)
	if err != nil {
		s.logger.Error("トークン生成に失敗しました", zap.Error(err))
		return nil, err
	}

	s.hub.Publish(room.ID)
	s.logger.Info("入室しました", zap.Uint("roomID", room.ID), zap.Uint("participantID", participant.ID), zap.String("name", name))
	return &JoinResult{
		RoomID:        room.ID,
		ParticipantID: participant.ID,
		Token:         token,
	}, nil
}
