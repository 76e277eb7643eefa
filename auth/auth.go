package auth

import "os"

// JwtKey は署名に使うシークレットキー。本番環境では必ず環境変数で設定すること。
var JwtKey = loadJwtKey()

func loadJwtKey() []byte {
	if key := os.Getenv("JWT_SECRET"); key != "" {
		return []byte(key)
	}
	return []byte("icchiserver-dev-secret")
}
