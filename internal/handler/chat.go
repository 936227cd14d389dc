package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AdvisorQuerier answers portfolio questions with LLM assistance.
type AdvisorQuerier interface {
	Ask(ctx context.Context, message string) (string, error)
}

type chatRequest struct {
	Message string `json:"message"`
}

// PostChat godoc
// @Summary      Ask the trading advisor
// @Description  Answers with the recent conversation and current portfolio as context
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        body  body  chatRequest  true  "User message"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/chat [post]
func (h *Handler) PostChat(c *gin.Context) {
	if h.advisor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "advisor not configured"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.post-chat")
	defer span.End()

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message must not be empty"})
		return
	}

	answer, err := h.advisor.Ask(ctx, req.Message)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}
