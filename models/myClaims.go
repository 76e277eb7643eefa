package models

import (
	jwt "github.com/dgrijalva/jwt-go"
)

// MyClaims はJWTクレームの構造体定義です。参加者の再入室用アイデンティティを内包します。
// ホスト権限はここには含めない。権限は毎回DBの名簿から導出する。
type MyClaims struct {
	ParticipantID uint   `json:"participantId"`
	RoomID        uint   `json:"roomId"`
	Name          string `json:"name"`
	jwt.StandardClaims
}
