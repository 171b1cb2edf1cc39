package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

type questionRequest struct {
	Type             domain.QuestionType `json:"type"`
	Prompt           string              `json:"question"`
	Options          []string            `json:"options"`
	CorrectAnswer    json.RawMessage     `json:"correct_answer"`
	Points           *int                `json:"points"`
	TimeLimitSeconds int                 `json:"time_limit_seconds"`
}

func (r questionRequest) question() domain.Question {
	points := 1
	if r.Points != nil {
		points = *r.Points
	}
	return domain.Question{
		Type:             r.Type,
		Prompt:           r.Prompt,
		Options:          r.Options,
		CorrectAnswer:    r.CorrectAnswer,
		Points:           points,
		TimeLimitSeconds: r.TimeLimitSeconds,
	}
}

func quizID(c *gin.Context) int64 {
	return c.GetInt64(quizIDKey)
}

func (h *Handler) createQuiz(c *gin.Context) {
	var patch app.QuizPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.badRequest(c, err)
		return
	}
	quiz, err := h.service.CreateQuiz(c.Request.Context(), patch)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, quiz)
}

func (h *Handler) getQuiz(c *gin.Context) {
	quiz, err := h.service.GetQuiz(c.Request.Context(), quizID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

func (h *Handler) updateQuiz(c *gin.Context) {
	var patch app.QuizPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.badRequest(c, err)
		return
	}
	quiz, err := h.service.UpdateQuiz(c.Request.Context(), quizID(c), patch)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

func (h *Handler) deleteQuiz(c *gin.Context) {
	if err := h.service.DeleteQuiz(c.Request.Context(), quizID(c)); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) addQuestion(c *gin.Context) {
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	question, err := h.service.AddQuestion(c.Request.Context(), quizID(c), req.question())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, question)
}

func (h *Handler) updateQuestion(c *gin.Context) {
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	question, err := h.service.UpdateQuestion(c.Request.Context(), quizID(c), c.GetInt64(questionIDKey), req.question())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

func (h *Handler) deleteQuestion(c *gin.Context) {
	if err := h.service.DeleteQuestion(c.Request.Context(), quizID(c), c.GetInt64(questionIDKey)); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// transition runs one lifecycle operation and reports the resulting session.
func (h *Handler) transition(c *gin.Context, status int, op func(context.Context, int64) (domain.Session, error)) {
	session, err := op(c.Request.Context(), quizID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(status, session)
}

func (h *Handler) openSession(c *gin.Context) {
	h.transition(c, http.StatusCreated, h.service.Open)
}

func (h *Handler) launchSession(c *gin.Context) {
	h.transition(c, http.StatusOK, h.service.Launch)
}

func (h *Handler) nextQuestion(c *gin.Context) {
	h.transition(c, http.StatusOK, h.service.Advance)
}

func (h *Handler) endSession(c *gin.Context) {
	h.transition(c, http.StatusOK, h.service.End)
}

func (h *Handler) live(c *gin.Context) {
	state, err := h.service.Live(c.Request.Context(), quizID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *Handler) sessions(c *gin.Context) {
	sessions, err := h.service.ListSessions(c.Request.Context(), quizID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}
