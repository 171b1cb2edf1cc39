package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"live-quiz-service/internal/app"
)

// Options tunes the HTTP surface.
type Options struct {
	// HostKey guards the host routes when non-empty.
	HostKey        string
	AllowedOrigins []string
}

// Handler serves the participant and host APIs over one Service.
type Handler struct {
	service  *app.Service
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func newHandler(service *app.Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// NewRouter wires every route of the service into a gin engine.
func NewRouter(service *app.Service, opts Options, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	h := newHandler(service, logger)

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))
	if cfg, ok := corsConfig(opts.AllowedOrigins); ok {
		router.Use(cors.New(cfg))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")

	participant := api.Group("/participant")
	participant.POST("/join", h.join)
	authed := participant.Group("")
	authed.Use(requireParticipant())
	{
		authed.GET("/state", h.state)
		authed.POST("/respond", h.respond)
		authed.GET("/ranking", h.ranking)
		authed.GET("/stream", h.stream)
	}

	quizzes := api.Group("/quizzes")
	quizzes.Use(requireHostKey(opts.HostKey))
	quizzes.POST("", h.createQuiz)

	quiz := quizzes.Group("/:id")
	quiz.Use(int64Param("id", quizIDKey))
	{
		quiz.GET("", h.getQuiz)
		quiz.PUT("", h.updateQuiz)
		quiz.DELETE("", h.deleteQuiz)

		quiz.POST("/questions", h.addQuestion)
		quiz.PUT("/questions/:qid", int64Param("qid", questionIDKey), h.updateQuestion)
		quiz.DELETE("/questions/:qid", int64Param("qid", questionIDKey), h.deleteQuestion)

		quiz.POST("/open", h.openSession)
		quiz.POST("/launch", h.launchSession)
		quiz.POST("/next-question", h.nextQuestion)
		quiz.POST("/end", h.endSession)
		quiz.GET("/live", h.live)
		quiz.GET("/sessions", h.sessions)
	}

	return router
}

func corsConfig(origins []string) (cors.Config, bool) {
	if len(origins) == 0 {
		return cors.Config{}, false
	}
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", participantTokenHeader, hostKeyHeader},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg, true
		}
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg, true
}
