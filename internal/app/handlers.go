package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Pinger checks that the booking platform accepts our credentials.
type Pinger interface {
	Ping(ctx context.Context, tenantID string) error
}

// TurnStore reads back the turn audit log.
type TurnStore interface {
	RecentTurns(ctx context.Context, limit int) ([]TurnRecord, error)
	Turn(ctx context.Context, turnID string) (TurnRecord, error)
}

type App struct {
	Agent    *Agent
	Gateway  Pinger
	Turns    TurnStore
	TenantID string
	Log      *slog.Logger
}

type chatReq struct {
	Message string `json:"message" binding:"required,max=4000"`
}

// POST /api/chat
func (a *App) ChatHandler(c *gin.Context) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply, err := a.Agent.Chat(c.Request.Context(), req.Message)
	if err != nil {
		a.Log.Error("chat turn failed", "request_id", c.GetString("request_id"), "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "the language model is unavailable, please try again"})
		return
	}
	c.JSON(http.StatusOK, reply)
}

// POST /api/chat/reset
func (a *App) ResetHandler(c *gin.Context) {
	a.Agent.Reset()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GET /api/chat/history
// The system instruction is left out.
func (a *App) HistoryHandler(c *gin.Context) {
	history := a.Agent.History()
	if len(history) > 0 && history[0].Role == RoleSystem {
		history = history[1:]
	}
	c.JSON(http.StatusOK, gin.H{
		"messages": history,
		"count":    len(history),
	})
}

// GET /api/health?deep=1
func (a *App) HealthHandler(c *gin.Context) {
	if c.Query("deep") == "" || a.Gateway == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()
	if err := a.Gateway.Ping(ctx, a.TenantID); err != nil {
		a.Log.Warn("booking platform ping failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "booking_platform": "ok"})
}

// GET /api/turns?limit=N
func (a *App) ListTurnsHandler(c *gin.Context) {
	if a.Turns == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "turn audit log not configured"})
		return
	}
	limit := 50
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = min(n, MaxTurnsPage)
	}
	turns, err := a.Turns.RecentTurns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if turns == nil {
		turns = []TurnRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"turns": turns, "count": len(turns)})
}

// GET /api/turns/:id
func (a *App) GetTurnHandler(c *gin.Context) {
	if a.Turns == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "turn audit log not configured"})
		return
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid turn id"})
		return
	}
	turn, err := a.Turns.Turn(c.Request.Context(), id)
	if errors.Is(err, pgx.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "turn not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, turn)
}

// Routes mounts the chat API on r.
func (a *App) Routes(r gin.IRouter, auth gin.HandlerFunc) {
	api := r.Group("/api")
	api.GET("/health", a.HealthHandler)

	protected := api.Group("")
	if auth != nil {
		protected.Use(auth)
	}
	{
		chat := protected.Group("/chat")
		chat.POST("", a.ChatHandler)
		chat.POST("/reset", a.ResetHandler)
		chat.GET("/history", a.HistoryHandler)

		protected.GET("/turns", a.ListTurnsHandler)
		protected.GET("/turns/:id", a.GetTurnHandler)
	}
}
