package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"soak_console/internal/models"
)

// @Summary      List schedules
// @Description  Schedules as last polled from the controller
// @Tags         schedules
// @Produce      json
// @Success      200  {array}  models.Schedule
// @Router       /api/v1/schedules [get]
// @Security     BearerAuth
func (h *Handler) listSchedules(c *gin.Context) {
	st := h.services.Monitoring.GetState(c.Request.Context(), operator(c).Role)
	out := st.Schedules
	if out == nil {
		out = []models.Schedule{}
	}
	c.JSON(http.StatusOK, out)
}

// @Summary      Create schedule
// @Tags         schedules
// @Accept       json
// @Produce      json
// @Param        body  body   models.Schedule  true  "Schedule"
// @Success      201   {object}  models.Schedule
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /api/v1/schedules [post]
// @Security     BearerAuth
func (h *Handler) createSchedule(c *gin.Context) {
	var s models.Schedule
	if !h.bindOrBadRequest(c, &s) {
		return
	}
	out, err := h.services.Console.CreateSchedule(c.Request.Context(), operator(c), s)
	if err != nil {
		h.respondError(c, "schedule_create_failed", err, "name", s.Name)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// @Summary      Update schedule
// @Tags         schedules
// @Accept       json
// @Produce      json
// @Param        id    path   int              true  "Schedule id"
// @Param        body  body   models.Schedule  true  "Schedule"
// @Success      200   {object}  models.Schedule
// @Router       /api/v1/schedules/{id} [put]
// @Security     BearerAuth
func (h *Handler) updateSchedule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var s models.Schedule
	if !h.bindOrBadRequest(c, &s) {
		return
	}
	out, err := h.services.Console.UpdateSchedule(c.Request.Context(), operator(c), id, s)
	if err != nil {
		h.respondError(c, "schedule_update_failed", err, "schedule_id", id)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary      Delete schedule
// @Tags         schedules
// @Produce      json
// @Param        id   path  int  true  "Schedule id"
// @Success      200  {object}  map[string]string
// @Router       /api/v1/schedules/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deleteSchedule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.services.Console.DeleteSchedule(c.Request.Context(), operator(c), id); err != nil {
		h.respondError(c, "schedule_delete_failed", err, "schedule_id", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusDone})
}
