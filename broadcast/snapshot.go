package broadcast

import (
	"icchiserver/models"

	"gorm.io/gorm"
)

// BuildSnapshot はコミット済みのルーム状態から配信用スナップショットを組み立てます。
// 回答内容はrevealing/endedに達するまで含めない。
func BuildSnapshot(db *gorm.DB, roomID uint) (*models.RoomSnapshot, error) {
	var room models.Room
	if err := db.First(&room, roomID).Error; err != nil {
		return nil, err
	}

	// 入室順＝表示順
	var participants []models.Participant
	if err := db.Where("room_id = ?", roomID).
		Order("joined_at ASC, id ASC").
		Find(&participants).Error; err != nil {
		return nil, err
	}

	snapshot := &models.RoomSnapshot{
		RoomID:    room.ID,
		Code:      room.Code,
		Status:    room.Status,
		ExpiresAt: room.ExpiresAt,
	}

	names := make(map[uint]string, len(participants))
	for _, p := range participants {
		names[p.ID] = p.Name
		snapshot.Participants = append(snapshot.Participants, models.ParticipantSnapshot{
			ID:          p.ID,
			Name:        p.Name,
			IsHost:      p.IsHost,
			HasAnswered: p.HasAnswered,
			JoinedAt:    p.JoinedAt,
		})
	}

	if room.CurrentRoundID != nil {
		var round models.Round
		if err := db.First(&round, *room.CurrentRoundID).Error; err != nil {
			return nil, err
		}
		roundView := &models.RoundSnapshot{
			ID:           round.ID,
			RoundNumber:  round.RoundNumber,
			TopicContent: round.TopicContent,
			Status:       round.Status,
			Judgment:     round.Judgment,
		}

		// 公開フェーズ以降のみ回答を載せる
		if room.Status == models.RoomStatusRevealing || room.Status == models.RoomStatusEnded {
			var answers []models.Answer
			if err := db.Where("round_id = ?", round.ID).
				Order("submitted_at ASC, id ASC").
				Find(&answers).Error; err != nil {
				return nil, err
			}
			for _, a := range answers {
				roundView.Answers = append(roundView.Answers, models.AnswerSnapshot{
					ParticipantID:   a.ParticipantID,
					ParticipantName: names[a.ParticipantID],
					Content:         a.Content,
					SubmittedAt:     a.SubmittedAt,
				})
			}
		}
		snapshot.CurrentRound = roundView
	}

	return snapshot, nil
}
