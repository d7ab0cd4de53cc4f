package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"weather_relay/internal/line"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

// @Summary      Chat webhook
// @Description  Acknowledges at once; each event is answered in the background.
// @Tags         chat
// @Accept       json
// @Success      200
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /webhook [post]
func (h *Handler) webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, "failed to read body", "webhook_read_failed", err)
		return
	}
	if h.channelSecret != "" && !line.VerifySignature(h.channelSecret, body, c.GetHeader(line.SignatureHeader)) {
		if h.log != nil {
			h.log.Warnw("webhook_bad_signature", "remote", c.ClientIP())
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var req line.WebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}
	if len(req.Events) > 0 {
		h.services.HandleEvents(c.Request.Context(), req.Events)
	}
	c.Status(http.StatusOK)
}
