package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// EditRequest carries the raw text of a direct-entry control.
type EditRequest struct {
	Raw string `json:"raw" example:"103.5"`
}

// @Summary      Begin direct entry
// @Description  Freezes the field against polls until commit, blur or cancel
// @Tags         edit
// @Produce      json
// @Param        field  path  string  true  "Field key, e.g. settings.set_point"
// @Success      200    {object}  map[string]interface{}
// @Router       /api/v1/edit/{field}/begin [post]
// @Security     BearerAuth
func (h *Handler) beginEdit(c *gin.Context) {
	field := c.Param("field")
	s, err := h.services.Console.BeginEdit(c.Request.Context(), operator(c), field)
	if err != nil {
		h.respondError(c, "edit_begin_failed", err, "field", field)
		return
	}
	c.JSON(http.StatusOK, gin.H{"field": s.Field, "raw": s.Raw, "frozen": s.Frozen})
}

// @Summary      Update direct entry text
// @Tags         edit
// @Accept       json
// @Produce      json
// @Param        field  path  string       true  "Field key"
// @Param        body   body  EditRequest  true  "Raw input"
// @Success      200    {object}  map[string]string
// @Failure      409    {object}  map[string]string  "no edit session"
// @Router       /api/v1/edit/{field}/input [post]
// @Security     BearerAuth
func (h *Handler) inputEdit(c *gin.Context) {
	var req EditRequest
	if !h.bindOrBadRequest(c, &req) {
		return
	}
	field := c.Param("field")
	if err := h.services.Console.InputEdit(c.Request.Context(), operator(c), field, req.Raw); err != nil {
		h.respondError(c, "edit_input_failed", err, "field", field)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      Commit direct entry
// @Tags         edit
// @Accept       json
// @Produce      json
// @Param        field  path  string       true  "Field key"
// @Param        body   body  EditRequest  true  "Raw input"
// @Success      200    {object}  map[string]interface{}
// @Failure      400    {object}  map[string]string  "input reverted"
// @Router       /api/v1/edit/{field}/commit [post]
// @Security     BearerAuth
func (h *Handler) commitEdit(c *gin.Context) {
	h.finishEdit(c, false)
}

// @Summary      Blur direct entry
// @Description  Same as commit: parseable input is sent, anything else reverts
// @Tags         edit
// @Accept       json
// @Produce      json
// @Param        field  path  string       true  "Field key"
// @Param        body   body  EditRequest  true  "Raw input"
// @Success      200    {object}  map[string]interface{}
// @Router       /api/v1/edit/{field}/blur [post]
// @Security     BearerAuth
func (h *Handler) blurEdit(c *gin.Context) {
	h.finishEdit(c, true)
}

func (h *Handler) finishEdit(c *gin.Context, blur bool) {
	var req EditRequest
	if !h.bindOrBadRequest(c, &req) {
		return
	}
	field := c.Param("field")
	finish := h.services.Console.CommitEdit
	if blur {
		finish = h.services.Console.BlurEdit
	}
	value, err := finish(c.Request.Context(), operator(c), field, req.Raw)
	if err != nil {
		h.respondError(c, "edit_commit_failed", err, "field", field, "raw", req.Raw)
		return
	}
	h.respondWithStatusAndState(c, statusAccepted, gin.H{"field": field, "value": value})
}

// @Summary      Cancel direct entry
// @Tags         edit
// @Produce      json
// @Param        field  path  string  true  "Field key"
// @Success      200    {object}  map[string]interface{}
// @Router       /api/v1/edit/{field}/cancel [post]
// @Security     BearerAuth
func (h *Handler) cancelEdit(c *gin.Context) {
	field := c.Param("field")
	if err := h.services.Console.CancelEdit(c.Request.Context(), operator(c), field); err != nil {
		h.respondError(c, "edit_cancel_failed", err, "field", field)
		return
	}
	h.respondWithStatusAndState(c, statusOK, gin.H{})
}
