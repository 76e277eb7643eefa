package game

import (
	"testing"
	"time"

	"icchiserver/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 全員回答済みでrevealing状態のルームを用意する
func setupRevealingRoom(t *testing.T, svc *Service) (*CreateRoomResult, []*JoinResult) {
	t.Helper()

	created, joined := setupRoom(t, svc, "ホスト太郎", "ぼぶ")
	require.NoError(t, svc.StartGame(created.RoomID, created.HostID))
	_, err := svc.SubmitAnswer(created.RoomID, created.HostID, "カレーライス")
	require.NoError(t, err)
	_, err = svc.SubmitAnswer(created.RoomID, joined[0].ParticipantID, "カレーライス")
	require.NoError(t, err)
	return created, joined
}

func TestSubmitJudgment(t *testing.T) {
	svc, db := newTestService(t)

	created, _ := setupRevealingRoom(t, svc)

	verdict, err := svc.SubmitJudgment(created.RoomID, created.HostID, models.JudgmentMatch)
	require.NoError(t, err)
	assert.Equal(t, models.JudgmentMatch, verdict)

	round := currentRound(t, db, created.RoomID)
	require.NotNil(t, round.Judgment)
	assert.Equal(t, models.JudgmentMatch, *round.Judgment)
}

func TestSubmitJudgmentIsImmutable(t *testing.T) {
	svc, _ := newTestService(t)

	created, _ := setupRevealingRoom(t, svc)

	_, err := svc.SubmitJudgment(created.RoomID, created.HostID, models.JudgmentMatch)
	require.NoError(t, err)

	// 二重送信はエラーにならず、最初の判定がそのまま返る
	verdict, err := svc.SubmitJudgment(created.RoomID, created.HostID, models.JudgmentNoMatch)
	require.NoError(t, err)
	assert.Equal(t, models.JudgmentMatch, verdict)
}

func TestSubmitJudgmentGuards(t *testing.T) {
	svc, _ := newTestService(t)

	created, joined := setupRoom(t, svc, "ホスト太郎", "ぼぶ")

	// 公開フェーズ以外では判定できない
	_, err := svc.SubmitJudgment(created.RoomID, created.HostID, models.JudgmentMatch)
	assert.ErrorIs(t, err, ErrRoomNotRevealing)

	require.NoError(t, svc.StartGame(created.RoomID, created.HostID))
	_, err = svc.SubmitJudgment(created.RoomID, created.HostID, models.JudgmentMatch)
	assert.ErrorIs(t, err, ErrRoomNotRevealing)

	_, err = svc.SubmitAnswer(created.RoomID, created.HostID, "寿司")
	require.NoError(t, err)
	_, err = svc.SubmitAnswer(created.RoomID, joined[0].ParticipantID, "寿司")
	require.NoError(t, err)

	// ホスト以外は判定できない
	_, err = svc.SubmitJudgment(created.RoomID, joined[0].ParticipantID, models.JudgmentMatch)
	assert.ErrorIs(t, err, ErrNotHost)

	// 未定義の判定値は弾く
	_, err = svc.SubmitJudgment(created.RoomID, created.HostID, "maybe")
	assert.ErrorIs(t, err, ErrInvalidVerdict)
}

func TestStartNextRound(t *testing.T) {
	svc, db := newTestService(t)

	created, _ := setupRevealingRoom(t, svc)

	// 判定前は進行できない
	_, err := svc.StartNextRound(created.RoomID, created.HostID)
	assert.ErrorIs(t, err, ErrJudgmentRequired)

	_, err = svc.SubmitJudgment(created.RoomID, created.HostID, models.JudgmentNoMatch)
	require.NoError(t, err)

	firstRound := currentRound(t, db, created.RoomID)

	number, err := svc.StartNextRound(created.RoomID, created.HostID)
	require.NoError(t, err)
	assert.Equal(t, 2, number)

	room := roomByID(t, db, created.RoomID)
	assert.Equal(t, models.RoomStatusPlaying, room.Status)
	assert.Equal(t, 0, room.AnsweredCount)

	// 前ラウンドは完了扱い、新ラウンドは未判定で回答フラグもリセット
	var archived models.Round
	require.NoError(t, db.First(&archived, firstRound.ID).Error)
	assert.Equal(t, models.RoundStatusCompleted, archived.Status)

	next := currentRound(t, db, created.RoomID)
	assert.Equal(t, 2, next.RoundNumber)
	assert.Nil(t, next.Judgment)

	var participants []models.Participant
	require.NoError(t, db.Where("room_id = ?", created.RoomID).Find(&participants).Error)
	for _, p := range participants {
		assert.False(t, p.HasAnswered)
	}
}

func TestStartNextRoundGuards(t *testing.T) {
	svc, _ := newTestService(t)

	created, joined := setupRevealingRoom(t, svc)
	_, err := svc.SubmitJudgment(created.RoomID, created.HostID, models.JudgmentMatch)
	require.NoError(t, err)

	_, err = svc.StartNextRound(created.RoomID, joined[0].ParticipantID)
	assert.ErrorIs(t, err, ErrNotHost)

	_, err = svc.StartNextRound(created.RoomID, created.HostID)
	require.NoError(t, err)

	// playing中の二重進行は弾かれる
	_, err = svc.StartNextRound(created.RoomID, created.HostID)
	assert.ErrorIs(t, err, ErrRoomNotRevealing)
}

func TestEndGame(t *testing.T) {
	svc, db := newTestService(t)

	created, _ := setupRevealingRoom(t, svc)
	_, err := svc.SubmitJudgment(created.RoomID, created.HostID, models.JudgmentMatch)
	require.NoError(t, err)

	require.NoError(t, svc.EndGame(created.RoomID, created.HostID))

	room := roomByID(t, db, created.RoomID)
	assert.Equal(t, models.RoomStatusEnded, room.Status)

	round := currentRound(t, db, created.RoomID)
	assert.Equal(t, models.RoundStatusCompleted, round.Status)

	// 二重終了は冪等に成功する
	require.NoError(t, svc.EndGame(created.RoomID, created.HostID))

	// 終了はアーカイブの成否に依存しないが、通常は履歴が残る
	assert.Eventually(t, func() bool {
		var count int64
		if err := db.Model(&models.GameHistory{}).Where("room_id = ?", created.RoomID).Count(&count).Error; err != nil {
			return false
		}
		return count == 1
	}, 3*time.Second, 50*time.Millisecond)
}

func TestEndGameGuards(t *testing.T) {
	svc, _ := newTestService(t)

	created, joined := setupRoom(t, svc, "ホスト太郎", "ぼぶ")

	// waiting中は終了できない
	err := svc.EndGame(created.RoomID, created.HostID)
	assert.ErrorIs(t, err, ErrRoomNotRevealing)

	require.NoError(t, svc.StartGame(created.RoomID, created.HostID))
	err = svc.EndGame(created.RoomID, created.HostID)
	assert.ErrorIs(t, err, ErrRoomNotRevealing)

	_, err = svc.SubmitAnswer(created.RoomID, created.HostID, "寿司")
	require.NoError(t, err)
	_, err = svc.SubmitAnswer(created.RoomID, joined[0].ParticipantID, "寿司")
	require.NoError(t, err)

	err = svc.EndGame(created.RoomID, joined[0].ParticipantID)
	assert.ErrorIs(t, err, ErrNotHost)
}

func TestEndedRoomRejectsFurtherCommands(t *testing.T) {
	svc, _ := newTestService(t)

	created, joined := setupRevealingRoom(t, svc)
	_, err := svc.SubmitJudgment(created.RoomID, created.HostID, models.JudgmentMatch)
	require.NoError(t, err)
	require.NoError(t, svc.EndGame(created.RoomID, created.HostID))

	// endedは終端状態。以降の進行・回答は受け付けない
	_, err = svc.StartNextRound(created.RoomID, created.HostID)
	assert.ErrorIs(t, err, ErrRoomNotRevealing)

	_, err = svc.SubmitAnswer(created.RoomID, joined[0].ParticipantID, "寿司")
	assert.ErrorIs(t, err, ErrRoundNotActive)

	err = svc.StartGame(created.RoomID, created.HostID)
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}
