package game

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"icchiserver/models"
)

// 名前に使える文字: 英数字・ひらがな・カタカナ・長音・漢字
var namePattern = regexp.MustCompile(`^[A-Za-z0-9ぁ-ゖァ-ヶー一-龯々]+$`)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{20}$`)

const maxContentLength = 500

func validateName(name string) error {
	length := utf8.RuneCountInString(name)
	if length < 2 || length > 20 {
		return ErrInvalidName
	}
	if !namePattern.MatchString(name) {
		return ErrInvalidName
	}
	return nil
}

func validateRoomCode(code string) error {
	if !codePattern.MatchString(code) {
		return ErrInvalidCode
	}
	return nil
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrInvalidContent
	}
	if utf8.RuneCountInString(content) > maxContentLength {
		return ErrInvalidContent
	}
	return nil
}

func validateVerdict(verdict string) error {
	if verdict != models.JudgmentMatch && verdict != models.JudgmentNoMatch {
		return ErrInvalidVerdict
	}
	return nil
}
