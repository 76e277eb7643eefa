package history

import (
	"time"

	"icchiserver/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Recorder は終了したゲームのアーカイブを担当します。
// ルーム本体はTTL超過で物理削除されるため、閲覧用データはここに残す。
type Recorder struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewRecorder(db *gorm.DB, logger *zap.Logger) *Recorder {
	return &Recorder{db: db, logger: logger}
}

// CreateGameHistory はルームのアーカイブレコードを作成してIDを返します。
func (r *Recorder) CreateGameHistory(room models.Room) (*models.GameHistory, error) {
	var roundCount int64
	if err := r.db.Model(&models.Round{}).Where("room_id = ?", room.ID).Count(&roundCount).Error; err != nil {
		return nil, err
	}

	record := models.GameHistory{
		RoomID:           room.ID,
		RoomCode:         room.Code,
		ParticipantCount: room.ParticipantCount,
		RoundCount:       int(roundCount),
		EndedAt:          time.Now(),
	}
	if err := r.db.Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// CreateGameAnswer は1件の回答をアーカイブします。参加者は名前で記録する。
func (r *Recorder) CreateGameAnswer(historyID uint, roundID uint, participantName string, content string, submittedAt time.Time) error {
	record := models.GameAnswer{
		GameHistoryID:   historyID,
		RoundID:         roundID,
		ParticipantName: participantName,
		Content:         content,
		SubmittedAt:     submittedAt,
	}
	return r.db.Create(&record).Error
}

// CompleteGameRound はラウンドのアーカイブレコードを確定します。
// 同じラウンドに対して複数回呼ばれても追加レコードは作らない。
func (r *Recorder) CompleteGameRound(roundID uint, answeredCount int, judgment *string) error {
	var existing models.HistoryRound
	err := r.db.Where("round_id = ?", roundID).First(&existing).Error
	if err == nil {
		// 既にアーカイブ済み。冪等に成功を返す
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	var round models.Round
	if err := r.db.First(&round, roundID).Error; err != nil {
		return err
	}
	var hist models.GameHistory
	if err := r.db.Where("room_id = ?", round.RoomID).Order("id DESC").First(&hist).Error; err != nil {
		return err
	}

	record := models.HistoryRound{
		GameHistoryID: hist.ID,
		RoundID:       round.ID,
		RoundNumber:   round.RoundNumber,
		TopicContent:  round.TopicContent,
		AnsweredCount: answeredCount,
		Judgment:      judgment,
	}
	return r.db.Create(&record).Error
}

// GetGameHistories は新しい順にアーカイブ一覧を返します。
func (r *Recorder) GetGameHistories(limit int) ([]models.GameHistory, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var histories []models.GameHistory
	if err := r.db.Order("ended_at DESC").Limit(limit).Find(&histories).Error; err != nil {
		return nil, err
	}
	return histories, nil
}

// HistoryDetails はアーカイブの詳細ビューです。
type HistoryDetails struct {
	History models.GameHistory    `json:"history"`
	Rounds  []HistoryRoundDetails `json:"rounds"`
}

type HistoryRoundDetails struct {
	Round   models.HistoryRound `json:"round"`
	Answers []models.GameAnswer `json:"answers"`
}

// GetGameHistoryDetails はラウンドと回答を含む詳細を返します。
func (r *Recorder) GetGameHistoryDetails(id uint) (*HistoryDetails, error) {
	var hist models.GameHistory
	if err := r.db.First(&hist, id).Error; err != nil {
		return nil, err
	}

	var rounds []models.HistoryRound
	if err := r.db.Where("game_history_id = ?", hist.ID).Order("round_number ASC").Find(&rounds).Error; err != nil {
		return nil, err
	}

	details := &HistoryDetails{History: hist}
	for _, round := range rounds {
		var answers []models.GameAnswer
		if err := r.db.Where("game_history_id = ? AND round_id = ?", hist.ID, round.RoundID).
			Order("submitted_at ASC").Find(&answers).Error; err != nil {
			return nil, err
		}
		details.Rounds = append(details.Rounds, HistoryRoundDetails{Round: round, Answers: answers})
	}
	return details, nil
}

// ArchiveRoom は終了したルームの全ラウンド・回答をまとめてアーカイブします。
// endGameからベストエフォートで呼ばれる（失敗してもゲーム終了は成立する）。
func (r *Recorder) ArchiveRoom(roomID uint) {
	var room models.Room
	if err := r.db.First(&room, roomID).Error; err != nil {
		r.logger.Error("アーカイブ対象のルーム取得に失敗しました", zap.Uint("roomID", roomID), zap.Error(err))
		return
	}

	hist, err := r.CreateGameHistory(room)
	if err != nil {
		r.logger.Error("ゲーム履歴の作成に失敗しました", zap.Uint("roomID", roomID), zap.Error(err))
		return
	}

	var participants []models.Participant
	r.db.Where("room_id = ?", roomID).Find(&participants)
	names := make(map[uint]string, len(participants))
	for _, p := range participants {
		names[p.ID] = p.Name
	}

	var rounds []models.Round
	r.db.Where("room_id = ?", roomID).Order("round_number ASC").Find(&rounds)
	for _, round := range rounds {
		var answers []models.Answer
		r.db.Where("round_id = ?", round.ID).Order("submitted_at ASC").Find(&answers)
		for _, a := range answers {
			if err := r.CreateGameAnswer(hist.ID, round.ID, names[a.ParticipantID], a.Content, a.SubmittedAt); err != nil {
				r.logger.Error("回答のアーカイブに失敗しました", zap.Uint("roundID", round.ID), zap.Error(err))
			}
		}
		if err := r.CompleteGameRound(round.ID, len(answers), round.Judgment); err != nil {
			r.logger.Error("ラウンドのアーカイブに失敗しました", zap.Uint("roundID", round.ID), zap.Error(err))
		}
	}

	r.logger.Info("ゲーム履歴をアーカイブしました", zap.Uint("roomID", roomID), zap.Uint("historyID", hist.ID))
}
