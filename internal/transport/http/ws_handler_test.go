package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"live-quiz-service/internal/app"
)

type wsFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func dialStream(t *testing.T, server *httptest.Server, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/participant/stream?token=" + token
	return websocket.DefaultDialer.Dial(u, nil)
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()
	var frame wsFrame
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

// readUntil skips frames until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string, match func(json.RawMessage) bool) wsFrame {
	t.Helper()
	for i := 0; i < 20; i++ {
		frame := readFrame(t, conn)
		if frame.Type == typ && (match == nil || match(frame.Payload)) {
			return frame
		}
	}
	t.Fatalf("no %s frame received", typ)
	return wsFrame{}
}

func TestStreamPushesStateAndAcceptsAnswers(t *testing.T) {
	api := newTestAPI(t, Options{})
	quiz, questions := api.seedQuiz("Paris")
	session := api.open(quiz.ID)
	joined := api.join(session.AccessCode, "alice")

	server := httptest.NewServer(api.router)
	defer server.Close()

	conn, _, err := dialStream(t, server, joined.SessionToken)
	require.NoError(t, err)
	defer conn.Close()

	first := readFrame(t, conn)
	require.Equal(t, msgState, first.Type)
	var waiting app.ParticipantState
	require.NoError(t, json.Unmarshal(first.Payload, &waiting))
	assert.True(t, waiting.WaitingForStart)

	rec := api.do(http.MethodPost, fmt.Sprintf("/api/v1/quizzes/%d/launch", quiz.ID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	started := readUntil(t, conn, msgState, func(raw json.RawMessage) bool {
		var st app.ParticipantState
		return json.Unmarshal(raw, &st) == nil && st.Question != nil
	})
	var active app.ParticipantState
	require.NoError(t, json.Unmarshal(started.Payload, &active))
	assert.Equal(t, questions[0], active.Question.ID)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    msgAnswer,
		"payload": map[string]any{"question_id": questions[0], "answer": "Paris"},
	}))
	answered := readUntil(t, conn, msgAnswerResult, nil)
	var result app.SubmitResult
	require.NoError(t, json.Unmarshal(answered.Payload, &result))
	require.NotNil(t, result.IsCorrect)
	assert.True(t, *result.IsCorrect)
	assert.True(t, result.AutoFinished)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": msgState}))
	readUntil(t, conn, msgState, func(raw json.RawMessage) bool {
		var st app.ParticipantState
		return json.Unmarshal(raw, &st) == nil && st.Finished
	})
}

func TestStreamReportsErrorsInBand(t *testing.T) {
	api := newTestAPI(t, Options{})
	quiz, questions := api.seedQuiz("Paris")
	session := api.open(quiz.ID)
	joined := api.join(session.AccessCode, "alice")

	server := httptest.NewServer(api.router)
	defer server.Close()

	conn, _, err := dialStream(t, server, joined.SessionToken)
	require.NoError(t, err)
	defer conn.Close()
	readFrame(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    msgAnswer,
		"payload": map[string]any{"question_id": questions[0], "answer": "Paris"},
	}))
	frame := readUntil(t, conn, msgError, nil)
	var payload errorPayload
	require.NoError(t, json.Unmarshal(frame.Payload, &payload))
	assert.Equal(t, http.StatusConflict, payload.Status)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "dance"}))
	frame = readUntil(t, conn, msgError, nil)
	require.NoError(t, json.Unmarshal(frame.Payload, &payload))
	assert.Equal(t, http.StatusBadRequest, payload.Status)
}

func TestStreamRejectsUnknownToken(t *testing.T) {
	api := newTestAPI(t, Options{})
	server := httptest.NewServer(api.router)
	defer server.Close()

	_, resp, err := dialStream(t, server, "missing")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
