package http

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

type joinRequest struct {
	Code   string `json:"code"`
	Pseudo string `json:"pseudo"`
}

type respondRequest struct {
	QuestionID int64           `json:"question_id"`
	Answer     json.RawMessage `json:"answer"`
}

func (h *Handler) join(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	result, err := h.service.Join(c.Request.Context(), req.Code, req.Pseudo)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) state(c *gin.Context) {
	state, err := h.service.State(c.Request.Context(), c.GetString(tokenKey))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *Handler) respond(c *gin.Context) {
	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	result, err := h.service.Submit(c.Request.Context(), c.GetString(tokenKey), req.QuestionID, req.Answer)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) ranking(c *gin.Context) {
	ranking, err := h.service.Ranking(c.Request.Context(), c.GetString(tokenKey))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ranking)
}
