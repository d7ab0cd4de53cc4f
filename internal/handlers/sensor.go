package handlers

import (
	"errors"
	"net/http"

	"weather_relay/internal/classifier"
	"weather_relay/internal/models"
	"weather_relay/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	msgReadingAccepted = "data received"
	msgReadingInvalid  = "light, temp and humidity are required and must be numbers"
	msgNoReading       = "no sensor data yet"
	errLoadReading     = "failed to load reading"

	statusTemplateName = "status"
)

// SensorDataRequest documents the /sensor-data payload.
type SensorDataRequest struct {
	Light    float64 `json:"light" example:"1200"`
	Temp     float64 `json:"temp" example:"28"`
	Humidity float64 `json:"humidity" example:"55"`
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

// @Summary      Ingest a reading
// @Description  Replaces the current reading. All three fields are required.
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        body  body      SensorDataRequest  true  "Reading"
// @Success      200   {object}  map[string]string  "message"
// @Failure      400   {object}  map[string]string  "message"
// @Router       /sensor-data [post]
func (h *Handler) postSensorData(c *gin.Context) {
	var in service.SensorInput
	if err := c.ShouldBindJSON(&in); err != nil {
		if h.log != nil {
			h.log.Infow("sensor_bad_request_body", "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"message": msgReadingInvalid})
		return
	}
	if _, err := h.services.Ingest(c.Request.Context(), in); err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"message": msgReadingInvalid})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to store reading", "sensor_ingest_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msgReadingAccepted})
}

// @Summary      Latest reading
// @Tags         device
// @Produce      json
// @Success      200  {object}  models.Reading
// @Failure      404  {object}  map[string]string  "message"
// @Router       /latest [get]
func (h *Handler) getLatest(c *gin.Context) {
	snap, err := h.services.Current(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrNoReading) {
			c.JSON(http.StatusNotFound, gin.H{"message": msgNoReading})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadReading, "latest_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, snap.Reading)
}

type statusView struct {
	Snapshot *models.Snapshot
	Labels   classifier.Labels
}

func (h *Handler) statusPage(c *gin.Context) {
	view := statusView{}
	snap, err := h.services.Current(c.Request.Context())
	switch {
	case err == nil:
		view.Snapshot = &snap
		view.Labels = h.services.Labels(snap.Reading)
	case !errors.Is(err, service.ErrNoReading):
		if h.log != nil {
			h.log.Errorw("status_page_get_failed", "err", err)
		}
	}
	c.HTML(http.StatusOK, statusTemplateName, view)
}

const statusPageHTML = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>Weather relay</title></head>
<body>
<h1>Weather relay</h1>
{{- if .Snapshot}}
<ul>
  <li>💡 Light: {{.Snapshot.Reading.Light}} lux ({{.Labels.Light.Label}})</li>
  <li>🌡️ Temperature: {{.Snapshot.Reading.Temp}} °C ({{.Labels.Temperature.Label}})</li>
  <li>💧 Humidity: {{.Snapshot.Reading.Humidity}} % ({{.Labels.Humidity.Label}})</li>
</ul>
<p>Received {{.Snapshot.ReceivedAt.Format "2006-01-02 15:04:05 MST"}}</p>
{{- else}}
<p>No sensor data yet.</p>
{{- end}}
</body>
</html>
`
