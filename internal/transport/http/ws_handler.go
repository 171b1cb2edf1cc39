package http

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	msgState        = "state"
	msgAnswer       = "answer"
	msgAnswerResult = "answer_result"
	msgError        = "error"

	maxInboundBytes = 16 << 10
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID int64           `json:"question_id"`
	Answer     json.RawMessage `json:"answer"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func errorMessage(err error) outboundMessage[any] {
	status := statusFor(err)
	return outboundMessage[any]{Type: msgError, Payload: errorPayload{Status: status, Message: publicMessage(status, err)}}
}

// stream pushes the participant state on connect and after every session
// event, and accepts answers and re-polls over the same socket.
func (h *Handler) stream(c *gin.Context) {
	ctx := c.Request.Context()
	token := c.GetString(tokenKey)

	initial, err := h.service.State(ctx, token)
	if err != nil {
		h.writeError(c, err)
		return
	}
	updates, cancel, err := h.service.Subscribe(ctx, token)
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxInboundBytes)

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write failed", "error", err)
				_ = conn.Close()
				return
			}
		}
	}()

	push := func(msg outboundMessage[any]) bool {
		select {
		case send <- msg:
			return true
		case <-writerDone:
			return false
		}
	}
	pushState := func() bool {
		state, err := h.service.State(ctx, token)
		if err != nil {
			return push(errorMessage(err))
		}
		return push(outboundMessage[any]{Type: msgState, Payload: state})
	}

	go func() {
		defer close(updatesDone)
		for {
			select {
			case _, ok := <-updates:
				if !ok || !pushState() {
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	push(outboundMessage[any]{Type: msgState, Payload: initial})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		ok := true
		switch inbound.Type {
		case msgState:
			ok = pushState()
		case msgAnswer:
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				ok = push(outboundMessage[any]{Type: msgError, Payload: errorPayload{Status: http.StatusBadRequest, Message: "invalid answer payload"}})
				break
			}
			result, err := h.service.Submit(ctx, token, payload.QuestionID, payload.Answer)
			if err != nil {
				ok = push(errorMessage(err))
				break
			}
			ok = push(outboundMessage[any]{Type: msgAnswerResult, Payload: result})
		default:
			ok = push(outboundMessage[any]{Type: msgError, Payload: errorPayload{Status: http.StatusBadRequest, Message: "unsupported message type"}})
		}
		if !ok {
			break
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
