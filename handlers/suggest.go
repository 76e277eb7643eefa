package handlers

import (
	"net/http"

	"icchiserver/game"
	"icchiserver/suggest"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SuggestionsHandler はホスト向けの会話提案を返します。
// 実行者がルームの現在のホストであることはサービス側で再検証される。
// 上流の生成APIが落ちていてもフォールバック提案を返し、エラーにはしない。
func SuggestionsHandler(c *gin.Context, svc *game.Service, generator *suggest.Generator, logger *zap.Logger) {
	claims, ok := ActorFromToken(c, logger)
	if !ok {
		return
	}
	roomID, ok := RoomIDParam(c)
	if !ok {
		return
	}

	room, round, answers, err := svc.RoundAnswersForHost(roomID, claims.ParticipantID)
	if err != nil {
		RespondError(c, logger, err)
		return
	}

	request := suggest.Request{
		TopicContent: round.TopicContent,
		RoundNumber:  round.RoundNumber,
		RoomCode:     room.Code,
	}
	for _, a := range answers {
		request.Answers = append(request.Answers, suggest.AnswerInput{
			ParticipantName: a.ParticipantName,
			Content:         a.Content,
		})
	}

	result := generator.Generate(c.Request.Context(), request)

	c.JSON(http.StatusOK, gin.H{
		"status":      "success",
		"suggestions": result,
	})
}
