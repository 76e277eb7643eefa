package handlers

import (
	"net/http"
	"strconv"

	"icchiserver/history"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GetHistoriesHandler はアーカイブ済みゲームの一覧を返します。
func GetHistoriesHandler(c *gin.Context, recorder *history.Recorder, logger *zap.Logger) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	histories, err := recorder.GetGameHistories(limit)
	if err != nil {
		logger.Error("履歴一覧の取得に失敗しました", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"status": "InternalError", "error": "履歴の取得に失敗しました"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"histories": histories,
	})
}

// GetHistoryDetailsHandler はラウンドと回答を含む履歴詳細を返します。
func GetHistoryDetailsHandler(c *gin.Context, recorder *history.Recorder, logger *zap.Logger) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "InvalidHistoryID", "error": "履歴IDの形式が正しくありません"})
		return
	}

	details, err := recorder.GetGameHistoryDetails(uint(id))
	if err != nil {
		logger.Info("履歴詳細の取得に失敗しました", zap.Uint64("id", id), zap.Error(err))
		c.JSON(http.StatusNotFound, gin.H{"status": "NotFound", "error": "履歴が見つかりません"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"details": details,
	})
}
