package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"soak_console/internal/authz"
	"soak_console/internal/models"
	"soak_console/internal/reconcile"
	"soak_console/internal/service"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK       = "ok"
	statusAccepted = "accepted"
	statusDone     = "done"

	errForbidden       = "forbidden"
	errBackend         = "controller request failed"
	errInternal        = "internal error"
	errInvalidBodyPref = "invalid body: "
	errInvalidID       = "invalid id"
)

// errorStatus maps a service error onto an HTTP status.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, authz.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidRelay),
		errors.Is(err, service.ErrInvalidSetting),
		errors.Is(err, service.ErrInvalidSoak),
		errors.Is(err, service.ErrInvalidTimer),
		errors.Is(err, service.ErrInvalidSchedule),
		errors.Is(err, service.ErrInvalidBugReport),
		errors.Is(err, service.ErrEmptyPatch),
		errors.Is(err, reconcile.ErrUnknownField),
		errors.Is(err, reconcile.ErrFieldType),
		errors.Is(err, reconcile.ErrNotEditable),
		errors.Is(err, reconcile.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNoActiveSession),
		errors.Is(err, reconcile.ErrNoSession),
		errors.Is(err, reconcile.ErrEditLocked):
		return http.StatusConflict
	}
	return http.StatusBadGateway
}

// respondError logs err under logKey and writes the mapped status.
func (h *Handler) respondError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	code := errorStatus(err)
	msg := err.Error()
	switch code {
	case http.StatusForbidden:
		msg = errForbidden
	case http.StatusBadGateway:
		msg = errBackend
	}
	if h.log != nil {
		fields := append([]interface{}{"err", err, "status", code}, kv...)
		if code >= http.StatusInternalServerError {
			h.log.Errorw(logKey, fields...)
		} else {
			h.log.Infow(logKey, fields...)
		}
	}
	c.JSON(code, gin.H{"error": msg})
}

// respondWithStatusAndState answers a command with the freshly reconciled state.
func (h *Handler) respondWithStatusAndState(c *gin.Context, status string, extra gin.H) {
	resp := gin.H{"status": status}
	for k, v := range extra {
		resp[k] = v
	}
	resp["state"] = h.services.Monitoring.GetState(c.Request.Context(), operator(c).Role)
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) bindOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return false
	}
	return true
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidID})
		return 0, false
	}
	return id, true
}

// ToggleRequest flips one relay.
type ToggleRequest struct {
	Relay string `json:"relay" binding:"required" example:"jet_pump"`
	On    *bool  `json:"on" binding:"required" example:"true"`
}

// StartSoakRequest starts a manual soak. Omitted values use the configured defaults.
type StartSoakRequest struct {
	TargetTemp      float64 `json:"target_temp,omitempty" example:"104"`
	DurationMinutes int     `json:"duration_minutes,omitempty" example:"30"`
}

// AdjustTimerRequest moves the active session's expiry.
type AdjustTimerRequest struct {
	Minutes int `json:"minutes" binding:"required" example:"5"`
}

// AdjustSettingRequest steps a numeric setting.
type AdjustSettingRequest struct {
	Field string  `json:"field" binding:"required" example:"set_point"`
	Delta float64 `json:"delta" binding:"required" example:"0.5"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Get reconciled state
// @Description  Reconciled device view plus countdown, next schedule, forecast warning and permissions for the caller's role
// @Tags         state
// @Produce      json
// @Success      200  {object}  service.StateView
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Monitoring.GetState(c.Request.Context(), operator(c).Role))
}

// @Summary      Get permissions
// @Tags         state
// @Produce      json
// @Success      200  {object}  map[string]bool
// @Router       /api/v1/permissions [get]
// @Security     BearerAuth
func (h *Handler) getPermissions(c *gin.Context) {
	op := operator(c)
	c.JSON(http.StatusOK, gin.H{"role": op.Role, "permissions": h.services.Monitoring.Permissions(op.Role)})
}

// @Summary      System console feed
// @Tags         state
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /api/v1/console [get]
// @Security     BearerAuth
func (h *Handler) getConsole(c *gin.Context) {
	out, err := h.services.Monitoring.SystemConsole(c.Request.Context(), operator(c).Role)
	if err != nil {
		h.respondError(c, "console_denied", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": out})
}

// @Summary      Force a resync
// @Tags         state
// @Produce      json
// @Success      202  {object}  map[string]string
// @Router       /api/v1/resync [post]
// @Security     BearerAuth
func (h *Handler) resync(c *gin.Context) {
	h.services.Console.Resync()
	c.JSON(http.StatusAccepted, gin.H{"status": statusAccepted})
}

// @Summary      Toggle a relay
// @Tags         control
// @Accept       json
// @Produce      json
// @Param        body  body   ToggleRequest  true  "Relay payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /api/v1/control/toggle [post]
// @Security     BearerAuth
func (h *Handler) toggle(c *gin.Context) {
	var req ToggleRequest
	if !h.bindOrBadRequest(c, &req) {
		return
	}
	if err := h.services.Console.Toggle(c.Request.Context(), operator(c), req.Relay, *req.On); err != nil {
		h.respondError(c, "toggle_failed", err, "relay", req.Relay)
		return
	}
	h.respondWithStatusAndState(c, statusAccepted, gin.H{"relay": req.Relay, "on": *req.On})
}

// @Summary      Reset safety faults
// @Tags         control
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/control/reset-faults [post]
// @Security     BearerAuth
func (h *Handler) resetFaults(c *gin.Context) {
	if err := h.services.Console.ResetFaults(c.Request.Context(), operator(c)); err != nil {
		h.respondError(c, "reset_faults_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusDone, gin.H{})
}

// @Summary      Master shutdown
// @Tags         control
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]string
// @Router       /api/v1/control/master-shutdown [post]
// @Security     BearerAuth
func (h *Handler) masterShutdown(c *gin.Context) {
	if err := h.services.Console.MasterShutdown(c.Request.Context(), operator(c)); err != nil {
		h.respondError(c, "master_shutdown_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusAccepted, gin.H{})
}

// @Summary      Start a manual soak
// @Tags         control
// @Accept       json
// @Produce      json
// @Param        body  body   StartSoakRequest  false  "Soak payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /api/v1/control/start-soak [post]
// @Security     BearerAuth
func (h *Handler) startSoak(c *gin.Context) {
	var req StartSoakRequest
	if c.Request.ContentLength != 0 && !h.bindOrBadRequest(c, &req) {
		return
	}
	p := service.SoakParams{TargetTemp: req.TargetTemp, DurationMinutes: req.DurationMinutes}
	if err := h.services.Console.StartSoak(c.Request.Context(), operator(c), p); err != nil {
		h.respondError(c, "start_soak_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusAccepted, gin.H{})
}

// @Summary      Cancel the manual soak
// @Tags         control
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/v1/control/cancel-soak [post]
// @Security     BearerAuth
func (h *Handler) cancelSoak(c *gin.Context) {
	if err := h.services.Console.CancelSoak(c.Request.Context(), operator(c)); err != nil {
		h.respondError(c, "cancel_soak_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusAccepted, gin.H{})
}

// @Summary      Cancel the scheduled session
// @Tags         control
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/v1/control/cancel-scheduled-session [post]
// @Security     BearerAuth
func (h *Handler) cancelScheduledSession(c *gin.Context) {
	if err := h.services.Console.CancelScheduledSession(c.Request.Context(), operator(c)); err != nil {
		h.respondError(c, "cancel_scheduled_session_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusAccepted, gin.H{})
}

// @Summary      Adjust the session timer
// @Tags         control
// @Accept       json
// @Produce      json
// @Param        body  body   AdjustTimerRequest  true  "Minutes, may be negative"
// @Success      200   {object}  map[string]interface{}
// @Failure      409   {object}  map[string]string  "no active session"
// @Router       /api/v1/control/adjust-timer [post]
// @Security     BearerAuth
func (h *Handler) adjustTimer(c *gin.Context) {
	var req AdjustTimerRequest
	if !h.bindOrBadRequest(c, &req) {
		return
	}
	if err := h.services.Console.AdjustTimer(c.Request.Context(), operator(c), req.Minutes); err != nil {
		h.respondError(c, "adjust_timer_failed", err, "minutes", req.Minutes)
		return
	}
	h.respondWithStatusAndState(c, statusAccepted, gin.H{"minutes": req.Minutes})
}

// @Summary      Trigger a schedule now
// @Tags         control
// @Produce      json
// @Param        id   path  int  true  "Schedule id"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/v1/control/trigger-schedule/{id} [post]
// @Security     BearerAuth
func (h *Handler) triggerSchedule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.services.Console.TriggerSchedule(c.Request.Context(), operator(c), id); err != nil {
		h.respondError(c, "trigger_schedule_failed", err, "schedule_id", id)
		return
	}
	h.respondWithStatusAndState(c, statusDone, gin.H{"schedule_id": id})
}

// @Summary      Request a system update
// @Tags         control
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/v1/control/update-system [post]
// @Security     BearerAuth
func (h *Handler) updateSystem(c *gin.Context) {
	if err := h.services.Console.UpdateSystem(c.Request.Context(), operator(c)); err != nil {
		h.respondError(c, "update_system_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusDone})
}

// @Summary      Patch settings
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body   models.SettingsPatch  true  "Partial settings"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /api/v1/settings [post]
// @Security     BearerAuth
func (h *Handler) updateSettings(c *gin.Context) {
	var patch models.SettingsPatch
	if !h.bindOrBadRequest(c, &patch) {
		return
	}
	if err := h.services.Console.UpdateSettings(c.Request.Context(), operator(c), patch); err != nil {
		h.respondError(c, "settings_update_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusAccepted, gin.H{})
}

// @Summary      Step a numeric setting
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body   AdjustSettingRequest  true  "Setting and delta"
// @Success      200   {object}  map[string]interface{}
// @Router       /api/v1/settings/adjust [post]
// @Security     BearerAuth
func (h *Handler) adjustSetting(c *gin.Context) {
	var req AdjustSettingRequest
	if !h.bindOrBadRequest(c, &req) {
		return
	}
	value, err := h.services.Console.AdjustSetting(c.Request.Context(), operator(c), req.Field, req.Delta)
	if err != nil {
		h.respondError(c, "settings_adjust_failed", err, "field", req.Field)
		return
	}
	h.respondWithStatusAndState(c, statusAccepted, gin.H{"field": req.Field, "value": value})
}

// @Summary      Reported bug
// @Tags         support
// @Accept       json
// @Produce      json
// @Param        body  body   BugReportRequest  true  "Bug report"
// @Success      200   {object}  map[string]string
// @Router       /api/v1/support/report-bug [post]
// @Security     BearerAuth
func (h *Handler) reportBug(c *gin.Context) {
	var req BugReportRequest
	if !h.bindOrBadRequest(c, &req) {
		return
	}
	url, err := h.services.Console.ReportBug(c.Request.Context(), operator(c), req.Title, req.Description)
	if err != nil {
		h.respondError(c, "report_bug_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"issue_url": url})
}

// BugReportRequest files an issue with the controller's tracker.
type BugReportRequest struct {
	Title       string `json:"title" binding:"required" example:"Jets will not start"`
	Description string `json:"description" example:"Since the last update"`
}
