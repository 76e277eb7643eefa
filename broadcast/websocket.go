package broadcast

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"icchiserver/auth"

	"go.uber.org/zap"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
)

const (
	pingPeriod   = 10 * time.Second
	readDeadline = 60 * time.Second
)

// HandleConnections はWebSocket接続へのアップグレードと購読の配線を行います。
// トークンはAuthorizationヘッダーまたはtokenクエリで受け取る
// （ブラウザのWebSocket APIはヘッダーを設定できないため）。
func HandleConnections(ctx context.Context, w http.ResponseWriter, r *http.Request, rdb *redis.Client, hub *Hub, logger *zap.Logger, upgrader websocket.Upgrader) {
	tokenString := auth.TrimBearer(r.Header.Get("Authorization"))
	if tokenString == "" {
		tokenString = r.URL.Query().Get("token")
	}
	claims, err := auth.ParseToken(tokenString)
	if err != nil {
		logger.Info("WebSocket接続のトークン検証に失敗しました", zap.Error(err))
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	roomID64, err := strconv.ParseUint(r.URL.Query().Get("room"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid room ID", http.StatusBadRequest)
		return
	}
	roomID := uint(roomID64)
	participantID := claims.ParticipantID

	if claims.RoomID != roomID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	// セッションIDの検証と復元
	sessionID := r.Header.Get("SessionID")
	if sessionID == "" {
		sessionID = r.URL.Query().Get("session")
	}
	if sessionID != "" {
		session := ValidateSessionID(ctx, rdb, sessionID, logger)
		if session == nil {
			http.Error(w, "Invalid or expired session ID", http.StatusUnauthorized)
			return
		}
		participantID = session.ParticipantID
		roomID = session.RoomID
		// 旧セッションの削除（新しいIDは接続確立後に発行する）
		DeleteSessionID(ctx, rdb, sessionID)
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Error upgrading WebSocket", zap.Error(err))
		return
	}

	sub, err := hub.Subscribe(roomID, participantID)
	if err != nil {
		logger.Info("購読の登録に失敗しました", zap.Uint("roomID", roomID), zap.Uint("participantID", participantID), zap.Error(err))
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "not a member"))
		conn.Close()
		return
	}
	logger.Info("New subscriber added", zap.Uint("roomID", roomID), zap.Uint("participantID", participantID))

	// 新しいセッションIDの発行と保存
	if err := GenerateAndStoreSessionID(ctx, conn, StreamSession{ParticipantID: participantID, RoomID: roomID}, rdb, logger); err != nil {
		logger.Error("Failed to generate or store session ID", zap.Error(err))
	}

	// 読み取りゴルーチン: クライアント切断の検知とPongによるデッドライン更新
	go func() {
		defer sub.Close()
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(readDeadline))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// 書き込みゴルーチン: イベント配信とPingを直列化する（gorillaは並行書き込み不可）
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer func() {
			ticker.Stop()
			conn.Close()
			logger.Info("Subscriber removed", zap.Uint("roomID", roomID), zap.Uint("participantID", participantID))
		}()
		for {
			select {
			case ev, ok := <-sub.C:
				if !ok {
					// 購読終了。正常クローズを通知
					conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
				if err := conn.WriteJSON(ev); err != nil {
					logger.Info("Failed to deliver event", zap.Error(err))
					sub.Close()
					return
				}
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					sub.Close()
					return
				}
			}
		}
	}()
}
