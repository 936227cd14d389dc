package handler

import (
	"net/http"

	"tradepulse/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type Handler struct {
	tracer        trace.Tracer
	botService    *service.BotService
	marketService *service.MarketService
	sink          *service.LogSink
	advisor       AdvisorQuerier
}

func New(
	tracer trace.Tracer,
	botService *service.BotService,
	marketService *service.MarketService,
	sink *service.LogSink,
	advisor AdvisorQuerier,
) *Handler {
	return &Handler{
		tracer:        tracer,
		botService:    botService,
		marketService: marketService,
		sink:          sink,
		advisor:       advisor,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	r.GET("/api/bots", h.ListBots)
	r.GET("/api/bot/:id", h.GetBot)
	r.PATCH("/api/bot/:id", h.PatchBot)
	r.POST("/api/bot/:id/kill", h.KillBot)
	r.POST("/api/bot/:id/paper/reset", h.ResetPaper)
	r.GET("/api/bot/:id/logs", h.GetLogs)
	r.GET("/api/bot/:id/logs/stream", h.StreamLogs)

	r.GET("/api/symbols", h.ListSymbols)
	r.GET("/api/market/:symbol/ticker", h.GetTicker)
	r.GET("/api/market/:symbol/ohlcv", h.GetOHLCV)
	r.GET("/api/market/:symbol/rsi", h.GetRSI)

	r.POST("/api/chat", h.PostChat)
}

// Health godoc
// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
