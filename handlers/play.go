package handlers

import (
	"net/http"

	"icchiserver/game"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StartGameHandler は第1ラウンドの開始を処理します。ホスト専用。
func StartGameHandler(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	claims, ok := ActorFromToken(c, logger)
	if !ok {
		return
	}
	roomID, ok := RoomIDParam(c)
	if !ok {
		return
	}

	if err := svc.StartGame(roomID, claims.ParticipantID); err != nil {
		RespondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// SubmitAnswerRequest は回答リクエストのボディを表す構造体です。
type SubmitAnswerRequest struct {
	Content string `json:"content"`
}

// SubmitAnswerHandler は回答の記録を処理します。
// 全員分が揃った場合は同じコミットで公開フェーズへ移行する。
func SubmitAnswerHandler(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	claims, ok := ActorFromToken(c, logger)
	if !ok {
		return
	}
	roomID, ok := RoomIDParam(c)
	if !ok {
		return
	}

	var request SubmitAnswerRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		logger.Error("Answer request bind error", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"status": "InvalidRequest", "error": "リクエストの形式が正しくありません"})
		return
	}

	result, err := svc.SubmitAnswer(roomID, claims.ParticipantID, request.Content)
	if err != nil {
		RespondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"revealed": result.Revealed,
	})
}

// ChangeTopicHandler はお題の差し替えを処理します。ホスト専用で回答ゼロの場合のみ。
func ChangeTopicHandler(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	claims, ok := ActorFromToken(c, logger)
	if !ok {
		return
	}
	roomID, ok := RoomIDParam(c)
	if !ok {
		return
	}

	topic, err := svc.ChangeTopicIfNoAnswers(roomID, claims.ParticipantID)
	if err != nil {
		RespondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"topic":  topic,
	})
}

// ForceRevealHandler は未回答者を待たない強制公開を処理します。ホスト専用。
func ForceRevealHandler(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	claims, ok := ActorFromToken(c, logger)
	if !ok {
		return
	}
	roomID, ok := RoomIDParam(c)
	if !ok {
		return
	}

	if err := svc.ForceRevealAnswers(roomID, claims.ParticipantID); err != nil {
		RespondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
