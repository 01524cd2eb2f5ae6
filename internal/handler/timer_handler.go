package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "pomodoro/timer/internal/errors"
	"pomodoro/timer/internal/middleware"
	"pomodoro/timer/internal/model"
	"pomodoro/timer/internal/service"
	"pomodoro/timer/internal/timer"
)

const (
	eventBuffer       = 32
	keepAliveInterval = 15 * time.Second
)

type TimerHandler struct {
	timerService *service.TimerService
}

type versionRequest struct {
	BaseVersion int `json:"baseVersion"`
}

type startRequest struct {
	BaseVersion int        `json:"baseVersion"`
	Mode        model.Mode `json:"mode"`
	TaskID      string     `json:"taskId"`
}

type switchModeRequest struct {
	BaseVersion int        `json:"baseVersion"`
	Mode        model.Mode `json:"mode"`
}

type updateSettingsRequest struct {
	BaseVersion int `json:"baseVersion"`
	model.SettingsPatch
}

func NewTimerHandler(timerService *service.TimerService) *TimerHandler {
	return &TimerHandler{timerService: timerService}
}

func (h *TimerHandler) GetState(c *gin.Context) {
	state, apiErr := h.timerService.GetState(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *TimerHandler) GetHistory(c *gin.Context) {
	sessions, apiErr := h.timerService.History(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *TimerHandler) Start(c *gin.Context) {
	var req startRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	state, apiErr := h.timerService.Start(c.Request.Context(), middleware.UserID(c), service.StartInput{
		BaseVersion: req.BaseVersion,
		Mode:        req.Mode,
		TaskID:      req.TaskID,
	})
	respondState(c, state, apiErr)
}

func (h *TimerHandler) Pause(c *gin.Context) {
	h.versioned(c, h.timerService.Pause)
}

func (h *TimerHandler) Resume(c *gin.Context) {
	h.versioned(c, h.timerService.Resume)
}

func (h *TimerHandler) Stop(c *gin.Context) {
	h.versioned(c, h.timerService.Stop)
}

func (h *TimerHandler) Reset(c *gin.Context) {
	h.versioned(c, h.timerService.Reset)
}

func (h *TimerHandler) Confirm(c *gin.Context) {
	h.versioned(c, h.timerService.Confirm)
}

func (h *TimerHandler) SwitchMode(c *gin.Context) {
	var req switchModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}
	state, apiErr := h.timerService.SwitchMode(c.Request.Context(), middleware.UserID(c), req.Mode, req.BaseVersion)
	respondState(c, state, apiErr)
}

func (h *TimerHandler) UpdateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}
	state, apiErr := h.timerService.UpdateSettings(c.Request.Context(), middleware.UserID(c), service.UpdateSettingsInput{
		BaseVersion: req.BaseVersion,
		Patch:       req.SettingsPatch,
	})
	respondState(c, state, apiErr)
}

// Events streams engine events as server-sent events, starting with the
// current state.
func (h *TimerHandler) Events(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	events, cancel, apiErr := h.timerService.Subscribe(ctx, userID, eventBuffer)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	defer cancel()

	state, apiErr := h.timerService.GetState(ctx, userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("state", state)
	c.Writer.Flush()
	c.Stream(func(w io.Writer) bool {
		return forwardEvent(ctx, c, events, keepAlive.C)
	})
}

func forwardEvent(ctx context.Context, c *gin.Context, events <-chan timer.Event, keepAlive <-chan time.Time) bool {
	select {
	case event, ok := <-events:
		if !ok {
			return false
		}
		c.SSEvent(string(event.Type), event)
		return true
	case <-keepAlive:
		c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
		return true
	case <-ctx.Done():
		return false
	}
}

func (h *TimerHandler) versioned(
	c *gin.Context,
	command func(ctx context.Context, userID string, baseVersion int) (*service.StateView, *apperrors.APIError),
) {
	var req versionRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	state, apiErr := command(c.Request.Context(), middleware.UserID(c), req.BaseVersion)
	respondState(c, state, apiErr)
}

func respondState(c *gin.Context, state *service.StateView, apiErr *apperrors.APIError) {
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}
