package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pomodoro/timer/internal/middleware"
	"pomodoro/timer/internal/service"
)

type HistoryHandler struct {
	historyService *service.HistoryService
}

func NewHistoryHandler(historyService *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{historyService: historyService}
}

func (h *HistoryHandler) ListSessions(c *gin.Context) {
	limit := 0
	if rawLimit := c.Query("limit"); rawLimit != "" {
		if parsed, err := strconv.Atoi(rawLimit); err == nil {
			limit = parsed
		}
	}

	sessions, apiErr := h.historyService.ListSessions(
		c.Request.Context(),
		middleware.UserID(c),
		c.Query("startDate"),
		c.Query("endDate"),
		limit,
	)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *HistoryHandler) Stats(c *gin.Context) {
	stats, apiErr := h.historyService.Stats(
		c.Request.Context(),
		middleware.UserID(c),
		c.DefaultQuery("type", service.StatsDaily),
		c.Query("startDate"),
		c.Query("endDate"),
	)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
