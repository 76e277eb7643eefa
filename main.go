package main

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"icchiserver/broadcast" // スナップショット配信のハブとWebSocket接続
	"icchiserver/database"  // PostgreSQLとRedisの初期化
	"icchiserver/game"      // ルーム・名簿・ラウンド・判定のコマンド処理
	"icchiserver/handlers"  // HTTPハンドラー
	"icchiserver/history"   // 終了したゲームのアーカイブ
	"icchiserver/suggest"   // ホスト向け会話提案の生成
	"icchiserver/utils"     // ロガーの初期化とCronジョブ(期限切れルームの掃除)

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

func main() {
	var logger *zap.Logger
	var err error
	logger, err = utils.InitLogger() // ロガーの初期化
	if err != nil {
		panic(err) // 失敗した場合はプログラム停止
	}
	defer logger.Sync() // ロガーのクリーンアップ

	// 設定ファイルの読み込み
	config, err := database.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("設定ファイルの読み込みに失敗しました", zap.Error(err))
	}

	// Websocket接続で用いるアップグレーダーを初期化
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	// 非同期でPostgreSQLとRedisの初期化
	var db *gorm.DB
	var rdb *redis.Client
	done := make(chan bool)

	go func() {
		db, err = database.InitPostgreSQL(config, logger)
		if err != nil {
			logger.Fatal("PostgreSQLの初期化に失敗しました", zap.Error(err))
		}
		done <- true
	}()

	go func() {
		rdb, err = database.InitRedis(logger)
		if err != nil {
			logger.Fatal("Failed to initialize Redis", zap.Error(err))
		}
		done <- true
	}()

	// 2つの初期化が完了するのを待つ
	<-done
	<-done

	// テーブルの作成
	if err := database.AutoMigrateDB(db); err != nil {
		logger.Fatal("マイグレーションに失敗しました", zap.Error(err))
	}

	// 各コンポーネントの構築。ストアのハンドルはここで注入する
	hub := broadcast.NewHub(db, logger)
	recorder := history.NewRecorder(db, logger)
	svc := game.NewService(db, logger, hub, recorder)
	generator := suggest.NewGenerator(config.SuggestAPIURL, logger)

	// クーロンスケジューラのセットアップと呼び出し
	go utils.CronCleaner(db, hub, logger)

	router := gin.New()
	//リクエストロガーを起動
	router.Use(gin.Recovery(), utils.RequestLogger(logger))

	//CORS（Cross-Origin Resource Sharing）ポリシーを設定
	allowedOrigins := config.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "SessionID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	//各HTTPリクエストのルーティング
	router.POST("/rooms", func(c *gin.Context) {
		handlers.CreateRoomHandler(c, svc, logger)
	})
	router.GET("/rooms/:code", func(c *gin.Context) {
		handlers.GetRoomHandler(c, svc, logger)
	})
	router.POST("/rooms/:code/join", func(c *gin.Context) {
		handlers.JoinRoomHandler(c, svc, logger)
	})
	router.POST("/play/:id/start", func(c *gin.Context) {
		handlers.StartGameHandler(c, svc, logger)
	})
	router.POST("/play/:id/answer", func(c *gin.Context) {
		handlers.SubmitAnswerHandler(c, svc, logger)
	})
	router.PUT("/play/:id/topic", func(c *gin.Context) {
		handlers.ChangeTopicHandler(c, svc, logger)
	})
	router.POST("/play/:id/reveal", func(c *gin.Context) {
		handlers.ForceRevealHandler(c, svc, logger)
	})
	router.POST("/play/:id/judgment", func(c *gin.Context) {
		handlers.SubmitJudgmentHandler(c, svc, logger)
	})
	router.POST("/play/:id/next", func(c *gin.Context) {
		handlers.StartNextRoundHandler(c, svc, logger)
	})
	router.POST("/play/:id/end", func(c *gin.Context) {
		handlers.EndGameHandler(c, svc, logger)
	})
	router.POST("/play/:id/suggestions", func(c *gin.Context) {
		handlers.SuggestionsHandler(c, svc, generator, logger)
	})
	router.GET("/histories", func(c *gin.Context) {
		handlers.GetHistoriesHandler(c, recorder, logger)
	})
	router.GET("/histories/:id", func(c *gin.Context) {
		handlers.GetHistoryDetailsHandler(c, recorder, logger)
	})
	router.GET("/ws", func(c *gin.Context) {
		broadcast.HandleConnections(c.Request.Context(), c.Writer, c.Request, rdb, hub, logger, upgrader)
	})

	// テスト時はHTTPサーバーとして運用。デフォルトポートは ":8080"
	router.Run(config.ListenAddr)

	// // 本番環境ではコメントアウトを解除し、HTTPSサーバーとして運用
	// err = router.RunTLS(":443", "path/to/cert.pem", "path/to/key.pem")
	// if err != nil {
	// 	logger.Fatal("Failed to run HTTPS server: ", zap.Error(err))
	// }
}
