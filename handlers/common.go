package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"icchiserver/auth"
	"icchiserver/game"
	"icchiserver/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RespondError はドメインエラーをHTTPステータスへ変換して返します。
func RespondError(c *gin.Context, logger *zap.Logger, err error) {
	var domainErr *game.Error
	if !errors.As(err, &domainErr) {
		logger.Error("予期しないエラーが発生しました", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "InternalError",
			"error":  "サーバー内部でエラーが発生しました",
		})
		return
	}

	var status int
	switch domainErr.Kind {
	case game.KindValidation:
		status = http.StatusBadRequest
	case game.KindNotFound:
		status = http.StatusNotFound
	case game.KindAuthorization:
		status = http.StatusForbidden
	case game.KindConflict, game.KindState:
		status = http.StatusConflict
	case game.KindTransient:
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusInternalServerError
	}

	c.JSON(status, gin.H{
		"status": domainErr.Code,
		"error":  domainErr.Message,
	})
}

// ActorFromToken はAuthorizationヘッダーのトークンから実行者のクレームを取得します。
// 権限そのものはここでは判定しない（ホスト判定はサービス側で名簿から導出する）。
func ActorFromToken(c *gin.Context, logger *zap.Logger) (*models.MyClaims, bool) {
	tokenString := auth.TrimBearer(c.GetHeader("Authorization"))
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"status": "TokenRequired",
			"error":  "認証トークンが必要です",
		})
		return nil, false
	}

	claims, err := auth.ParseToken(tokenString)
	if err != nil {
		logger.Info("トークンの検証に失敗しました", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{
			"status": "TokenInvalid",
			"error":  "認証に失敗しました",
		})
		return nil, false
	}
	return claims, true
}

// RoomIDParam はURLパラメータのルームIDを取り出します。
func RoomIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "InvalidRoomID",
			"error":  "ルームIDの形式が正しくありません",
		})
		return 0, false
	}
	return uint(id), true
}
