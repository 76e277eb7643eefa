package handlers

import (
	"net/http"

	"icchiserver/game"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SubmitJudgmentRequest は判定リクエストのボディを表す構造体です。
type SubmitJudgmentRequest struct {
	Verdict string `json:"verdict"` // "match"または"no_match"
}

// SubmitJudgmentHandler はホストの判定を処理します。
// 判定済みラウンドへの再送はエラーにならず既存の判定が返る。
func SubmitJudgmentHandler(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	claims, ok := ActorFromToken(c, logger)
	if !ok {
		return
	}
	roomID, ok := RoomIDParam(c)
	if !ok {
		return
	}

	var request SubmitJudgmentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		logger.Error("Judgment request bind error", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"status": "InvalidRequest", "error": "リクエストの形式が正しくありません"})
		return
	}

	verdict, err := svc.SubmitJudgment(roomID, claims.ParticipantID, request.Verdict)
	if err != nil {
		RespondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"judgment": verdict,
	})
}

// StartNextRoundHandler は次ラウンドへの進行を処理します。ホスト専用。
func StartNextRoundHandler(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	claims, ok := ActorFromToken(c, logger)
	if !ok {
		return
	}
	roomID, ok := RoomIDParam(c)
	if !ok {
		return
	}

	roundNumber, err := svc.StartNextRound(roomID, claims.ParticipantID)
	if err != nil {
		RespondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "success",
		"roundNumber": roundNumber,
	})
}

// EndGameHandler はゲーム終了を処理します。ホスト専用。
func EndGameHandler(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	claims, ok := ActorFromToken(c, logger)
	if !ok {
		return
	}
	roomID, ok := RoomIDParam(c)
	if !ok {
		return
	}

	if err := svc.EndGame(roomID, claims.ParticipantID); err != nil {
		RespondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
