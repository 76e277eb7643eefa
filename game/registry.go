package game

import (
	"crypto/rand"
	"errors"
	"time"

	"icchiserver/auth"
	"icchiserver/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// コード衝突時の再試行上限
const codeGenerationAttempts = 5

const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CreateRoomResult はルーム作成の戻り値です。
type CreateRoomResult struct {
	RoomID   uint   `json:"roomId"`
	RoomCode string `json:"roomCode"`
	HostID   uint   `json:"hostId"`
	Token    string `json:"token"`
}

// CreateRoom はルームとホスト参加者を1つのトランザクションで作成します。
// 参加者ゼロのルームが観測される中間状態は存在しない。
func (s *Service) CreateRoom(hostName string) (*CreateRoomResult, error) {
	if err := validateName(hostName); err != nil {
		return nil, err
	}

	var room models.Room
	var host models.Participant

	for attempt := 0; attempt < codeGenerationAttempts; attempt++ {
		code, err := generateRoomCode()
		if err != nil {
			s.logger.Error("ルームコードの生成に失敗しました", zap.Error(err))
			return nil, ErrCodeGenerationExhausted
		}

		now := time.Now()
		room = models.Room{
			Code:             code,
			Status:           models.RoomStatusWaiting,
			ParticipantCount: 1,
			ExpiresAt:        now.Add(models.RoomTTL),
		}
		host = models.Participant{
			Name:     hostName,
			IsHost:   true,
			JoinedAt: now,
		}

		err = s.runTx(func(tx *gorm.DB) error {
			if err := tx.Create(&room).Error; err != nil {
				return err
			}
			host.RoomID = room.ID
			return tx.Create(&host).Error
		})
		if err == nil {
			break
		}
		if isDuplicateKey(err) {
			// コード衝突。別のコードで再試行
			s.logger.Info("ルームコードが衝突したため再生成します", zap.Int("attempt", attempt+1))
			room = models.Room{}
			host = models.Participant{}
			continue
		}
		return nil, err
	}
	if room.ID == 0 {
		return nil, ErrCodeGenerationExhausted
	}

	token, err := auth.GenerateToken(host.ID, room.ID, host.Name)
	if err != nil {
		s.logger.Error("トークン生成に失敗しました", zap.Error(err))
		return nil, err
	}

	s.logger.Info("ルームを作成しました", zap.Uint("roomID", room.ID), zap.String("code", room.Code))
	return &CreateRoomResult{
		RoomID:   room.ID,
		RoomCode: room.Code,
		HostID:   host.ID,
		Token:    token,
	}, nil
}

// GetRoomByCode はコードからルームのスナップショットを返します。
func (s *Service) GetRoomByCode(code string) (*models.RoomSnapshot, error) {
	if err := validateRoomCode(code); err != nil {
		return nil, err
	}
	room, err := s.findRoomByCode(code)
	if err != nil {
		return nil, err
	}
	return s.Snapshot(room.ID)
}

func (s *Service) findRoomByCode(code string) (*models.Room, error) {
	var room models.Room
	if err := s.db.Where("code = ?", code).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if time.Now().After(room.ExpiresAt) {
		// 掃除ジョブが未到達でもTTL超過は見せない
		return nil, ErrRoomNotFound
	}
	return &room, nil
}

// generateRoomCode は大文字英数字20文字のコードを生成します。
// コードは入室の資格情報なので予測不能である必要がある。
func generateRoomCode() (string, error) {
	buf := make([]byte, models.RoomCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	code := make([]byte, models.RoomCodeLength)
	for i, b := range buf {
		code[i] = codeCharset[int(b)%len(codeCharset)]
	}
	return string(code), nil
}
