package handlers

import (
	"errors"
	"net/http"

	"weather_relay/internal/service"

	"github.com/gin-gonic/gin"
)

// @Summary      Known chat recipients
// @Tags         operator
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, recipients"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/recipients [get]
// @Security     BearerAuth
func (h *Handler) getRecipients(c *gin.Context) {
	recipients, err := h.services.ListRecipients(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load recipients", "recipients_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":      len(recipients),
		"recipients": recipients,
	})
}

// @Summary      Send a report now
// @Description  Composes the current report and broadcasts it, ignoring the scheduler interval.
// @Tags         operator
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "message, failed"
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/reports [post]
// @Security     BearerAuth
func (h *Handler) triggerReport(c *gin.Context) {
	msg, err := h.services.TriggerNow(c.Request.Context())
	if err != nil {
		var de *service.DispatchError
		switch {
		case errors.Is(err, service.ErrNoReading):
			c.JSON(http.StatusNotFound, gin.H{"error": msgNoReading})
		case errors.As(err, &de):
			if h.log != nil {
				h.log.Warnw("report_partially_sent", "err", err, "operator_id", operatorID(c))
			}
			c.JSON(http.StatusOK, gin.H{"message": msg, "failed": len(de.Targets)})
		default:
			h.logAndJSONError(c, http.StatusInternalServerError, "failed to send report", "report_trigger_failed", err)
		}
		return
	}
	if h.log != nil {
		h.log.Infow("report_triggered", "operator_id", operatorID(c))
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "failed": 0})
}
