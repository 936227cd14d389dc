package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"tradepulse/internal/domain"
	"tradepulse/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
)

// ListBots godoc
// @Summary      List all bots
// @Tags         bots
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/bots [get]
func (h *Handler) ListBots(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.list-bots")
	defer span.End()

	statuses, err := h.botService.ListStatuses(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bots": statuses})
}

// GetBot godoc
// @Summary      Get bot status
// @Description  Returns the bot configuration, lifecycle state, balance, position and equity curve
// @Tags         bots
// @Produce      json
// @Param        id  path  string  true  "Bot ID"
// @Success      200  {object}  service.BotStatus
// @Failure      404  {object}  map[string]string
// @Router       /api/bot/{id} [get]
func (h *Handler) GetBot(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-bot")
	defer span.End()
	span.SetAttributes(attribute.String("bot_id", c.Param("id")))

	status, err := h.botService.GetStatus(ctx, c.Param("id"))
	if err != nil {
		h.writeBotError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// PatchBot godoc
// @Summary      Update bot configuration
// @Description  Partial update; toggling is_running starts or stops the bot
// @Tags         bots
// @Accept       json
// @Produce      json
// @Param        id     path  string           true  "Bot ID"
// @Param        patch  body  service.BotPatch true  "Fields to update"
// @Success      200  {object}  service.BotStatus
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/bot/{id} [patch]
func (h *Handler) PatchBot(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.patch-bot")
	defer span.End()

	var patch service.BotPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	status, err := h.botService.Patch(ctx, c.Param("id"), patch)
	if err != nil {
		h.writeBotError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// KillBot godoc
// @Summary      Engage the kill switch
// @Description  Immediately halts the bot; an in-flight tick is discarded
// @Tags         bots
// @Produce      json
// @Param        id  path  string  true  "Bot ID"
// @Success      200  {object}  service.BotStatus
// @Failure      404  {object}  map[string]string
// @Router       /api/bot/{id}/kill [post]
func (h *Handler) KillBot(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.kill-bot")
	defer span.End()

	status, err := h.botService.Kill(ctx, c.Param("id"))
	if err != nil {
		h.writeBotError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

type resetRequest struct {
	StartingCapital float64 `json:"starting_capital"`
}

// ResetPaper godoc
// @Summary      Reset the paper account
// @Description  Restores starting capital and clears position and equity history. Rejected in live mode.
// @Tags         bots
// @Accept       json
// @Produce      json
// @Param        id    path  string        true   "Bot ID"
// @Param        body  body  resetRequest  false  "Optional starting capital override"
// @Success      200  {object}  service.BotStatus
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/bot/{id}/paper/reset [post]
func (h *Handler) ResetPaper(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.reset-paper")
	defer span.End()

	var req resetRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
	}
	if req.StartingCapital < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "starting_capital must be non-negative"})
		return
	}
	if req.StartingCapital == 0 {
		req.StartingCapital = 10000
	}

	status, err := h.botService.ResetPaper(ctx, c.Param("id"), req.StartingCapital)
	if err != nil {
		h.writeBotError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetLogs godoc
// @Summary      Get the bot event log
// @Tags         bots
// @Produce      json
// @Param        id     path   string  true   "Bot ID"
// @Param        limit  query  int     false  "Number of entries (default 100, max 500)"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /api/bot/{id}/logs [get]
func (h *Handler) GetLogs(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-logs")
	defer span.End()

	limit := 100
	if rawLimit := strings.TrimSpace(c.Query("limit")); rawLimit != "" {
		n, err := strconv.Atoi(rawLimit)
		if err != nil || n <= 0 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}

	entries, err := h.botService.Logs(ctx, c.Param("id"), limit)
	if err != nil {
		h.writeBotError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": entries})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamLogs upgrades to a websocket and pushes event log entries as
// they happen until the client goes away.
func (h *Handler) StreamLogs(c *gin.Context) {
	botID := c.Param("id")
	if _, err := h.botService.GetStatus(c.Request.Context(), botID); err != nil {
		h.writeBotError(c, err)
		return
	}
	if h.sink == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "log stream unavailable"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed for bot %s: %v", botID, err)
		return
	}
	defer conn.Close()

	entries, unsubscribe := h.sink.Subscribe(botID)
	defer unsubscribe()

	// Reader goroutine only serves to detect client disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case entry := <-entries:
			if err := conn.WriteJSON(entry); err != nil {
				return
			}
		}
	}
}

func (h *Handler) writeBotError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrBotNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrLiveModeReset):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case strings.Contains(err.Error(), "unsupported symbol"),
		strings.Contains(err.Error(), "must be"):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
