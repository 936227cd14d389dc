package handler

import (
	"errors"
	"net/http"
	"strings"

	"tradepulse/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// ListSymbols godoc
// @Summary      List supported trading pairs
// @Tags         market
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/symbols [get]
func (h *Handler) ListSymbols(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"symbols": h.marketService.Symbols()})
}

// GetTicker godoc
// @Summary      Get the latest ticker
// @Description  Cached for 15s; serves the last good value flagged stale when the provider is down
// @Tags         market
// @Produce      json
// @Param        symbol  path  string  true  "Pair, dash-separated (e.g. BTC-USDT)"
// @Success      200  {object}  domain.Ticker
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/market/{symbol}/ticker [get]
func (h *Handler) GetTicker(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-ticker")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", c.Param("symbol")))

	ticker, err := h.marketService.Ticker(ctx, c.Param("symbol"))
	if err != nil {
		h.writeMarketError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticker)
}

// GetOHLCV godoc
// @Summary      Get recent OHLCV bars
// @Description  Cached for 60s
// @Tags         market
// @Produce      json
// @Param        symbol  path  string  true  "Pair, dash-separated (e.g. BTC-USDT)"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/market/{symbol}/ohlcv [get]
func (h *Handler) GetOHLCV(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-ohlcv")
	defer span.End()

	bars, err := h.marketService.OHLCV(ctx, c.Param("symbol"))
	if err != nil {
		h.writeMarketError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candles": bars})
}

// GetRSI godoc
// @Summary      Get the RSI series for a pair
// @Tags         market
// @Produce      json
// @Param        symbol  path  string  true  "Pair, dash-separated (e.g. BTC-USDT)"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/market/{symbol}/rsi [get]
func (h *Handler) GetRSI(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-rsi")
	defer span.End()

	points, err := h.marketService.RSI(ctx, c.Param("symbol"))
	if err != nil {
		h.writeMarketError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rsi": points})
}

func (h *Handler) writeMarketError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrDataUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case strings.Contains(err.Error(), "unsupported symbol"):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             err.Error(),
			"supported_symbols": domain.SupportedSymbols,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
