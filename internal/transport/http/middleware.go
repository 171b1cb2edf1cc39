package http

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	participantTokenHeader = "X-Participant-Token"
	hostKeyHeader          = "X-Host-Key"

	tokenKey      = "participantToken"
	quizIDKey     = "quizID"
	questionIDKey = "questionID"
)

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		logger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration", time.Since(start),
		)
	}
}

// participantToken reads the opaque session token. Browsers cannot set
// headers on websocket upgrades, so the stream also accepts ?token=.
func participantToken(c *gin.Context) string {
	if token := strings.TrimSpace(c.GetHeader(participantTokenHeader)); token != "" {
		return token
	}
	if token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
		if token = strings.TrimSpace(token); token != "" {
			return token
		}
	}
	if c.IsWebsocket() {
		return strings.TrimSpace(c.Query("token"))
	}
	return ""
}

func requireParticipant() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := participantToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "participant token required"})
			return
		}
		c.Set(tokenKey, token)
		c.Next()
	}
}

func requireHostKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		got := c.GetHeader(hostKeyHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid host key"})
			return
		}
		c.Next()
	}
}

// int64Param parses a positive numeric path parameter into the context.
func int64Param(name, contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param(name), 10, 64)
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s", name)})
			return
		}
		c.Set(contextKey, id)
		c.Next()
	}
}
