package auth

import (
	"fmt"
	"strings"
	"time"

	"icchiserver/models"

	jwt "github.com/dgrijalva/jwt-go"
)

// トークンの有効期限。ルームTTLより長めに取り、再入室の猶予を持たせる。
const tokenLifetime = 24 * time.Hour

// GenerateToken は参加者のアイデンティティトークンを生成します。
// 再入室時はこのトークンの提示で名簿上の本人と照合される。
func GenerateToken(participantID uint, roomID uint, name string) (string, error) {
	claims := &models.MyClaims{
		ParticipantID: participantID,
		RoomID:        roomID,
		Name:          name,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(tokenLifetime).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JwtKey)
}

// ParseToken はトークン文字列を検証してクレームを返します。
func ParseToken(tokenString string) (*models.MyClaims, error) {
	claims := &models.MyClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return JwtKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is invalid")
	}
	return claims, nil
}

// TrimBearer はAuthorizationヘッダー値からBearerプレフィックスを取り除きます。
func TrimBearer(header string) string {
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
