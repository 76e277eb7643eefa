package handlers

import (
	"net/http"

	"icchiserver/auth"
	"icchiserver/game"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CreateRoomRequest はルーム作成リクエストのボディを表す構造体です。
type CreateRoomRequest struct {
	HostName string `json:"hostName"`
}

// CreateRoomHandler はルーム作成を処理します。
// ルームとホスト参加者は1コミットで作成され、空のルームは観測されない。
func CreateRoomHandler(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	var request CreateRoomRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		logger.Error("Room create request bind error", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"status": "InvalidRequest", "error": "リクエストの形式が正しくありません"})
		return
	}

	result, err := svc.CreateRoom(request.HostName)
	if err != nil {
		RespondError(c, logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":   "success",
		"roomId":   result.RoomID,
		"roomCode": result.RoomCode,
		"hostId":   result.HostID,
		"token":    result.Token,
	})
}

// GetRoomHandler はコードからルームの現在状態を返します（初回描画用）。
// 回答内容は購読と同じフィルタで、公開フェーズ前は含まれない。
func GetRoomHandler(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	snapshot, err := svc.GetRoomByCode(c.Param("code"))
	if err != nil {
		RespondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"room":   snapshot,
	})
}

// JoinRoomRequest は入室リクエストのボディを表す構造体です。
type JoinRoomRequest struct {
	Name string `json:"name"`
}

// JoinRoomHandler は入室・再入室を処理します。
// 再入室はAuthorizationヘッダーの既存トークンで判定する。
func JoinRoomHandler(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	var request JoinRoomRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		logger.Error("Join request bind error", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"status": "InvalidRequest", "error": "リクエストの形式が正しくありません"})
		return
	}

	// 新規入室ではトークンは不要。あれば再入室判定に使う
	tokenString := auth.TrimBearer(c.GetHeader("Authorization"))

	result, err := svc.JoinRoom(c.Param("code"), request.Name, tokenString)
	if err != nil {
		RespondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"roomId":        result.RoomID,
		"participantId": result.ParticipantID,
		"token":         result.Token,
		"rejoined":      result.Rejoined,
	})
}
