package game

import "errors"

// Kind はエラー分類（バリデーション・権限・競合など）を表します。
// ハンドラー側でHTTPステータスへの変換に使う。
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindAuthorization
	KindConflict
	KindState
	KindTransient
	KindUpstream
)

// Error は分類と機械可読コードを持つドメインエラーです。
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

var (
	// バリデーション
	ErrInvalidName    = &Error{KindValidation, "InvalidName", "名前は2〜20文字の英数字または日本語で入力してください"}
	ErrInvalidCode    = &Error{KindValidation, "InvalidCode", "ルームコードの形式が正しくありません"}
	ErrInvalidContent = &Error{KindValidation, "InvalidContent", "回答は1〜500文字で入力してください"}
	ErrInvalidVerdict = &Error{KindValidation, "InvalidVerdict", "判定はmatchまたはno_matchを指定してください"}

	// 未検出
	ErrRoomNotFound  = &Error{KindNotFound, "NotFound", "ルームが見つかりません"}
	ErrRoundNotFound = &Error{KindNotFound, "RoundNotFound", "ラウンドが見つかりません"}

	// 権限。ホスト権限は毎回名簿から導出した結果に基づく
	ErrNotHost   = &Error{KindAuthorization, "NotHost", "ホストのみ実行できる操作です"}
	ErrNotMember = &Error{KindAuthorization, "NotMember", "このルームの参加者ではありません"}

	// 競合
	ErrRoomFull           = &Error{KindConflict, "RoomFull", "ルームが満員です"}
	ErrNameTaken          = &Error{KindConflict, "NameTaken", "その名前は既に使われています"}
	ErrAlreadyAnswered    = &Error{KindConflict, "AlreadyAnswered", "既に回答済みです"}
	ErrGameAlreadyStarted = &Error{KindConflict, "GameAlreadyStarted", "ゲームは既に開始されています"}
	ErrAuthMismatch       = &Error{KindConflict, "AuthMismatch", "トークンと名前が一致しません"}

	// 状態
	ErrAlreadyStarted           = &Error{KindState, "AlreadyStarted", "ゲームは既に開始されています"}
	ErrInsufficientParticipants = &Error{KindState, "InsufficientParticipants", "開始には2人以上の参加者が必要です"}
	ErrRoundNotActive           = &Error{KindState, "RoundNotActive", "現在回答を受け付けていません"}
	ErrAnswersAlreadySubmitted  = &Error{KindState, "AnswersAlreadySubmitted", "既に回答があるためお題を変更できません"}
	ErrInsufficientAnswers      = &Error{KindState, "InsufficientAnswers", "公開には2件以上の回答が必要です"}
	ErrRoomNotRevealing         = &Error{KindState, "RoomNotRevealing", "公開フェーズでのみ実行できる操作です"}
	ErrJudgmentRequired         = &Error{KindState, "JudgmentRequired", "次のラウンドへ進む前に判定が必要です"}

	// 一時的エラー（リトライ可）
	ErrTransient               = &Error{KindTransient, "TransientError", "一時的なエラーが発生しました。しばらくしてから再試行してください"}
	ErrCodeGenerationExhausted = &Error{KindTransient, "CodeGenerationExhausted", "ルームコードの生成に失敗しました"}
)

// KindOf はエラーの分類を返します。ドメインエラー以外は0。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
