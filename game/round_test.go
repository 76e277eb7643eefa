package game

import (
	"strings"
	"sync"
	"testing"

	"icchiserver/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartGame(t *testing.T) {
	svc, db := newTestService(t)

	created, _ := setupRoom(t, svc, "ホスト太郎", "ぼぶ")
	require.NoError(t, svc.StartGame(created.RoomID, created.HostID))

	room := roomByID(t, db, created.RoomID)
	assert.Equal(t, models.RoomStatusPlaying, room.Status)
	assert.Equal(t, 0, room.AnsweredCount)

	round := currentRound(t, db, created.RoomID)
	assert.Equal(t, 1, round.RoundNumber)
	assert.NotEmpty(t, round.TopicContent)
	assert.Equal(t, models.RoundStatusActive, round.Status)
	assert.Nil(t, round.Judgment)
}

func TestStartGameRequiresTwoParticipants(t *testing.T) {
	svc, _ := newTestService(t)

	created, _ := setupRoom(t, svc, "ホスト太郎")
	err := svc.StartGame(created.RoomID, created.HostID)
	assert.ErrorIs(t, err, ErrInsufficientParticipants)
}

func TestStartGameNonHost(t *testing.T) {
	svc, _ := newTestService(t)

	created, joined := setupRoom(t, svc, "ホスト太郎", "ぼぶ")
	err := svc.StartGame(created.RoomID, joined[0].ParticipantID)
	assert.ErrorIs(t, err, ErrNotHost)
	assert.Equal(t, KindAuthorization, KindOf(err))

	err = svc.StartGame(created.RoomID, 99999)
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestStartGameTwice(t *testing.T) {
	svc, _ := newTestService(t)

	created, _ := setupRoom(t, svc, "ホスト太郎", "ぼぶ")
	require.NoError(t, svc.StartGame(created.RoomID, created.HostID))

	err := svc.StartGame(created.RoomID, created.HostID)
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestSubmitAnswerAutoReveal(t *testing.T) {
	svc, db := newTestService(t)

	created, joined := setupRoom(t, svc, "ホスト太郎", "ぼぶ")
	require.NoError(t, svc.StartGame(created.RoomID, created.HostID))

	result, err := svc.SubmitAnswer(created.RoomID, joined[0].ParticipantID, "カレーライス")
	require.NoError(t, err)
	assert.False(t, result.Revealed)

	// 途中経過では回答済みフラグだけが見え、内容は見えない
	snapshot, err := svc.Snapshot(created.RoomID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusPlaying, snapshot.Status)
	require.NotNil(t, snapshot.CurrentRound)
	assert.Empty(t, snapshot.CurrentRound.Answers)
	for _, p := range snapshot.Participants {
		if p.ID == joined[0].ParticipantID {
			assert.True(t, p.HasAnswered)
		} else {
			assert.False(t, p.HasAnswered)
		}
	}

	// 最後の1人の回答で同一コミット内にrevealingへ遷移する
	result, err = svc.SubmitAnswer(created.RoomID, created.HostID, "カレーライス")
	require.NoError(t, err)
	assert.True(t, result.Revealed)

	room := roomByID(t, db, created.RoomID)
	assert.Equal(t, models.RoomStatusRevealing, room.Status)

	snapshot, err = svc.Snapshot(created.RoomID)
	require.NoError(t, err)
	require.NotNil(t, snapshot.CurrentRound)
	assert.Len(t, snapshot.CurrentRound.Answers, 2)
}

func TestSubmitAnswerTwice(t *testing.T) {
	svc, _ := newTestService(t)

	created, joined := setupRoom(t, svc, "ホスト太郎", "ぼぶ")
	require.NoError(t, svc.StartGame(created.RoomID, created.HostID))

	_, err := svc.SubmitAnswer(created.RoomID, joined[0].ParticipantID, "ラーメン")
	require.NoError(t, err)

	_, err = svc.SubmitAnswer(created.RoomID, joined[0].ParticipantID, "うどん")
	assert.ErrorIs(t, err, ErrAlreadyAnswered)
}

func TestSubmitAnswerConcurrentLastTwo(t *testing.T) {
	svc, db := newTestService(t)

	created, joined := setupRoom(t, svc, "ホスト太郎", "ぼぶ", "きゃろる")
	require.NoError(t, svc.StartGame(created.RoomID, created.HostID))

	_, err := svc.SubmitAnswer(created.RoomID, created.HostID, "寿司")
	require.NoError(t, err)

	// 残り2人が同時に回答しても、どちらか一方の回答で必ず遷移する
	var wg sync.WaitGroup
	revealed := make([]bool, 2)
	errs := make([]error, 2)
	for i, p := range joined {
		wg.Add(1)
		go func(i int, participantID uint) {
			defer wg.Done()
			result, err := svc.SubmitAnswer(created.RoomID, participantID, "寿司")
			if err != nil {
				errs[i] = err
				return
			}
			revealed[i] = result.Revealed
		}(i, p.ParticipantID)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	room := roomByID(t, db, created.RoomID)
	assert.Equal(t, models.RoomStatusRevealing, room.Status)
	assert.Equal(t, 3, room.AnsweredCount)
	assert.True(t, revealed[0] || revealed[1])
}

func TestSubmitAnswerValidation(t *testing.T) {
	svc, _ := newTestService(t)

	created, joined := setupRoom(t, svc, "ホスト太郎", "ぼぶ")
	require.NoError(t, svc.StartGame(created.RoomID, created.HostID))

	_, err := svc.SubmitAnswer(created.RoomID, joined[0].ParticipantID, "   ")
	assert.ErrorIs(t, err, ErrInvalidContent)

	_, err = svc.SubmitAnswer(created.RoomID, joined[0].ParticipantID, strings.Repeat("あ", 501))
	assert.ErrorIs(t, err, ErrInvalidContent)

	_, err = svc.SubmitAnswer(created.RoomID, 99999, "寿司")
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestSubmitAnswerOutsidePlaying(t *testing.T) {
	svc, _ := newTestService(t)

	created, joined := setupRoom(t, svc, "ホスト太郎", "ぼぶ")

	// waiting中は回答できない
	_, err := svc.SubmitAnswer(created.RoomID, joined[0].ParticipantID, "寿司")
	assert.ErrorIs(t, err, ErrRoundNotActive)

	require.NoError(t, svc.StartGame(created.RoomID, created.HostID))
	_, err = svc.SubmitAnswer(created.RoomID, created.HostID, "寿司")
	require.NoError(t, err)
	_, err = svc.SubmitAnswer(created.RoomID, joined[0].ParticipantID, "寿司")
	require.NoError(t, err)

	// 全員回答でrevealingへ移行した後も回答できない
	_, err = svc.SubmitAnswer(created.RoomID, joined[0].ParticipantID, "寿司")
	assert.ErrorIs(t, err, ErrRoundNotActive)
}

func TestChangeTopicIfNoAnswers(t *testing.T) {
	svc, db := newTestService(t)

	created, joined := setupRoom(t, svc, "ホスト太郎", "ぼぶ")
	require.NoError(t, svc.StartGame(created.RoomID, created.HostID))

	before := currentRound(t, db, created.RoomID)

	newTopic, err := svc.ChangeTopicIfNoAnswers(created.RoomID, created.HostID)
	require.NoError(t, err)
	assert.NotEqual(t, before.TopicContent, newTopic)

	// ラウンド番号は変わらない
	after := currentRound(t, db, created.RoomID)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.RoundNumber, after.RoundNumber)
	assert.Equal(t, newTopic, after.TopicContent)

	// 1件でも回答が付いたら差し替え不可
	_, err = svc.SubmitAnswer(created.RoomID, joined[0].ParticipantID, "寿司")
	require.NoError(t, err)
	_, err = svc.ChangeTopicIfNoAnswers(created.RoomID, created.HostID)
	assert.ErrorIs(t, err, ErrAnswersAlreadySubmitted)
}

func TestChangeTopicNonHost(t *testing.T) {
	svc, _ := newTestService(t)

	created, joined := setupRoom(t, svc, "ホスト太郎", "ぼぶ")
	require.NoError(t, svc.StartGame(created.RoomID, created.HostID))

	_, err := svc.ChangeTopicIfNoAnswers(created.RoomID, joined[0].ParticipantID)
	assert.ErrorIs(t, err, ErrNotHost)
}

func TestForceRevealAnswers(t *testing.T) {
	svc, db := newTestService(t)

	created, joined := setupRoom(t, svc, "ホスト太郎", "ぼぶ", "きゃろる")
	require.NoError(t, svc.StartGame(created.RoomID, created.HostID))

	// 回答2件未満では強制公開できない
	_, err := svc.SubmitAnswer(created.RoomID, joined[0].ParticipantID, "寿司")
	require.NoError(t, err)
	err = svc.ForceRevealAnswers(created.RoomID, created.HostID)
	assert.ErrorIs(t, err, ErrInsufficientAnswers)

	_, err = svc.SubmitAnswer(created.RoomID, joined[1].ParticipantID, "寿司")
	require.NoError(t, err)
	require.NoError(t, svc.ForceRevealAnswers(created.RoomID, created.HostID))

	room := roomByID(t, db, created.RoomID)
	assert.Equal(t, models.RoomStatusRevealing, room.Status)

	// 未回答者の回答は合成されない。公開ビューには2件だけ載る
	snapshot, err := svc.Snapshot(created.RoomID)
	require.NoError(t, err)
	require.NotNil(t, snapshot.CurrentRound)
	assert.Len(t, snapshot.CurrentRound.Answers, 2)
}
