package models

// Config 構造体はサーバー起動時の設定情報を保持します。
type Config struct {
	DBHost         string   `json:"db_host"`
	DBUser         string   `json:"db_user"`
	DBPassword     string   `json:"db_password"`
	DBName         string   `json:"db_name"`
	DBSSLMode      string   `json:"db_sslmode"`
	ListenAddr     string   `json:"listen_addr"`     // 例: ":8080"
	AllowedOrigins []string `json:"allowed_origins"` // CORS許可オリジン
	SuggestAPIURL  string   `json:"suggest_api_url"` // 提案生成の上流URL（空ならフォールバックのみ）
}
