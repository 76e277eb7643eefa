package broadcast

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// StreamSession は再接続用にRedisへ保存する購読セッション情報です。
type StreamSession struct {
	ParticipantID uint `json:"participantId"`
	RoomID        uint `json:"roomId"`
}

// ValidateSessionID checks the session ID from Redis and returns the session if it is valid.
func ValidateSessionID(ctx context.Context, rdb *redis.Client, sessionID string, logger *zap.Logger) *StreamSession {
	if sessionID == "" {
		return nil
	}

	sessionInfoJSON, err := rdb.Get(ctx, "session:"+sessionID).Result()
	if err != nil {
		logger.Info("Failed to retrieve session info", zap.Error(err))
		return nil
	}

	var session StreamSession
	if err := json.Unmarshal([]byte(sessionInfoJSON), &session); err != nil {
		logger.Error("Failed to decode session info", zap.Error(err))
		return nil
	}
	if session.ParticipantID == 0 || session.RoomID == 0 {
		logger.Error("Invalid session info", zap.String("sessionID", sessionID))
		return nil
	}
	return &session
}

// GenerateAndStoreSessionID は新しいセッションIDを発行してRedisに保存し、
// クライアントへ送り返します。
func GenerateAndStoreSessionID(ctx context.Context, conn *websocket.Conn, session StreamSession, rdb *redis.Client, logger *zap.Logger) error {
	sessionID := uuid.New().String()

	sessionInfoJSON, err := json.Marshal(session)
	if err != nil {
		logger.Error("Error encoding session info", zap.Error(err))
		return err
	}

	// 24時間の有効期限
	err = rdb.Set(ctx, "session:"+sessionID, sessionInfoJSON, 24*time.Hour).Err()
	if err != nil {
		logger.Error("Error storing session info in Redis", zap.Error(err))
		return err
	}

	return sendSessionIDToClient(conn, sessionID, logger)
}

// DeleteSessionID は旧セッションを破棄します（ローテーション用）。
func DeleteSessionID(ctx context.Context, rdb *redis.Client, sessionID string) {
	rdb.Del(ctx, "session:"+sessionID)
}

func sendSessionIDToClient(conn *websocket.Conn, sessionID string, logger *zap.Logger) error {
	response := map[string]interface{}{
		"type":      "session",
		"sessionID": sessionID,
	}
	responseJSON, err := json.Marshal(response)
	if err != nil {
		logger.Error("Error marshalling session ID response", zap.Error(err))
		return err
	}

	if conn != nil {
		if err := conn.WriteMessage(websocket.TextMessage, responseJSON); err != nil {
			logger.Error("Error sending session ID to client", zap.Error(err))
			return err
		}
	}
	return nil
}
