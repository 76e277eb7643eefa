package game

import (
	"icchiserver/models"

	"gorm.io/gorm"
)

// RoundAnswersForHost は提案生成のために現在ラウンドの回答を集めます。
// 呼び出し元が主張するホスト権限は信用せず、ここで名簿から再検証する。
func (s *Service) RoundAnswersForHost(roomID uint, actorID uint) (*models.Room, *models.Round, []models.AnswerSnapshot, error) {
	var room *models.Room
	var round *models.Round
	var views []models.AnswerSnapshot

	err := s.runTx(func(tx *gorm.DB) error {
		if _, err := requireHost(tx, roomID, actorID); err != nil {
			return err
		}
		var err error
		room, err = loadRoom(tx, roomID)
		if err != nil {
			return err
		}
		round, err = loadCurrentRound(tx, room)
		if err != nil {
			return err
		}

		var participants []models.Participant
		if err := tx.Where("room_id = ?", roomID).Find(&participants).Error; err != nil {
			return err
		}
		names := make(map[uint]string, len(participants))
		for _, p := range participants {
			names[p.ID] = p.Name
		}

		var answers []models.Answer
		if err := tx.Where("round_id = ?", round.ID).
			Order("submitted_at ASC, id ASC").Find(&answers).Error; err != nil {
			return err
		}
		for _, a := range answers {
			views = append(views, models.AnswerSnapshot{
				ParticipantID:   a.ParticipantID,
				ParticipantName: names[a.ParticipantID],
				Content:         a.Content,
				SubmittedAt:     a.SubmittedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return room, round, views, nil
}
