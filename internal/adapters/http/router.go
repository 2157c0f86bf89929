package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/mentor-avatar/internal/config"
	"github.com/dkeye/mentor-avatar/internal/domain"
	"github.com/dkeye/mentor-avatar/internal/relay"
)

func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

type sessionRequest struct {
	SessionID domain.SessionID `json:"session_id"`
	SDP       json.RawMessage  `json:"sdp"`
	Candidate json.RawMessage  `json:"candidate"`
	Text      string           `json:"text"`
}

// SetupRouter wires the relay endpoints under /api/heygen and health under /api.
func SetupRouter(cfg *config.Config, svc *relay.Service) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())

	log.Info().Str("module", "adapters.http").Msg("relay router setup")

	h := &relayHandlers{svc: svc, secret: cfg.HeyGen.APIKey}

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"service":   cfg.ServiceName,
		})
	})

	hg := api.Group("/heygen/session")
	hg.POST("/new", h.newSession)
	hg.POST("/start", h.start)
	hg.POST("/ice", h.ice)
	hg.POST("/speak", h.speak)
	hg.POST("/interrupt", h.interrupt)
	hg.POST("/close", h.close)

	return r
}

type relayHandlers struct {
	svc    *relay.Service
	secret string
}

func (h *relayHandlers) newSession(c *gin.Context) {
	body, err := h.svc.NewSession(c.Request.Context())
	h.respond(c, "Failed to create session", body, err)
}

func (h *relayHandlers) start(c *gin.Context) {
	req, ok := h.bind(c, "Failed to start session")
	if !ok {
		return
	}
	body, err := h.svc.Start(c.Request.Context(), req.SessionID, req.SDP)
	h.respond(c, "Failed to start session", body, err)
}

func (h *relayHandlers) ice(c *gin.Context) {
	req, ok := h.bind(c, "Failed to send ICE candidate")
	if !ok {
		return
	}
	body, err := h.svc.SendICE(c.Request.Context(), req.SessionID, req.Candidate)
	h.respond(c, "Failed to send ICE candidate", body, err)
}

func (h *relayHandlers) speak(c *gin.Context) {
	req, ok := h.bind(c, "Failed to send text")
	if !ok {
		return
	}
	body, err := h.svc.Speak(c.Request.Context(), req.SessionID, req.Text)
	h.respond(c, "Failed to send text", body, err)
}

func (h *relayHandlers) interrupt(c *gin.Context) {
	req, ok := h.bind(c, "Failed to interrupt session")
	if !ok {
		return
	}
	body, err := h.svc.Interrupt(c.Request.Context(), req.SessionID)
	h.respond(c, "Failed to interrupt session", body, err)
}

func (h *relayHandlers) close(c *gin.Context) {
	req, ok := h.bind(c, "Failed to close session")
	if !ok {
		return
	}
	body, err := h.svc.Close(c.Request.Context(), req.SessionID)
	h.respond(c, "Failed to close session", body, err)
}

func (h *relayHandlers) bind(c *gin.Context, summary string) (sessionRequest, bool) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": summary, "details": "invalid JSON body"})
		return req, false
	}
	return req, true
}

func (h *relayHandlers) respond(c *gin.Context, summary string, body json.RawMessage, err error) {
	if err == nil {
		c.Data(http.StatusOK, "application/json; charset=utf-8", body)
		return
	}
	status := StatusFor(err)
	details := domain.MessageOf(err)
	if h.secret != "" {
		details = strings.ReplaceAll(details, h.secret, "[redacted]")
	}
	log.Error().
		Str("module", "adapters.http").
		Str("request_id", c.GetString("request_id")).
		Str("path", c.FullPath()).
		Int("status", status).
		Str("details", details).
		Msg(summary)
	c.JSON(status, gin.H{"error": summary, "details": details})
}

// StatusFor maps the error taxonomy onto HTTP status codes. A provider 4xx
// is the provider rejecting the request and is passed through as is.
func StatusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindProvider:
		var e *domain.Error
		if errors.As(err, &e) && e.Status >= 400 && e.Status < 500 {
			return e.Status
		}
		return http.StatusBadGateway
	case domain.KindProviderUnreachable:
		return http.StatusGatewayTimeout
	default:
		if errors.Is(err, context.Canceled) {
			return 499
		}
		return http.StatusInternalServerError
	}
}
