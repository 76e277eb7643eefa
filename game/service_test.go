package game

import (
	"testing"

	"icchiserver/broadcast"
	"icchiserver/database"
	"icchiserver/history"
	"icchiserver/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// テスト用のインメモリストアでサービスを組み立てる。
// コネクションを1本に絞ることで同時コマンドのテストが決定的になる。
func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrateDB(db))

	logger := zap.NewNop()
	hub := broadcast.NewHub(db, logger)
	recorder := history.NewRecorder(db, logger)
	return NewService(db, logger, hub, recorder), db
}

// ホスト1人＋指定した名前の参加者でwaiting状態のルームを用意する
func setupRoom(t *testing.T, svc *Service, hostName string, names ...string) (*CreateRoomResult, []*JoinResult) {
	t.Helper()

	created, err := svc.CreateRoom(hostName)
	require.NoError(t, err)

	joined := make([]*JoinResult, 0, len(names))
	for _, name := range names {
		result, err := svc.JoinRoom(created.RoomCode, name, "")
		require.NoError(t, err)
		joined = append(joined, result)
	}
	return created, joined
}

func roomByID(t *testing.T, db *gorm.DB, roomID uint) models.Room {
	t.Helper()
	var room models.Room
	require.NoError(t, db.First(&room, roomID).Error)
	return room
}

func currentRound(t *testing.T, db *gorm.DB, roomID uint) models.Round {
	t.Helper()
	room := roomByID(t, db, roomID)
	require.NotNil(t, room.CurrentRoundID)
	var round models.Round
	require.NoError(t, db.First(&round, *room.CurrentRoundID).Error)
	return round
}
