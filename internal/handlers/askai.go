package handlers

import (
	"errors"
	"net/http"

	"weather_relay/internal/service"

	"github.com/gin-gonic/gin"
)

const errQuestionOrReading = "question or sensor data missing"

type askRequest struct {
	Question string `json:"question" example:"Should I bring an umbrella?"`
}

// @Summary      Ask the AI about the current weather
// @Tags         ai
// @Accept       json
// @Produce      json
// @Param        body  body      askRequest         true  "Question"
// @Success      200   {object}  map[string]string  "answer"
// @Failure      400   {object}  map[string]string
// @Router       /ask-ai [post]
func (h *Handler) askAI(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errQuestionOrReading})
		return
	}
	answer, err := h.services.Answer(c.Request.Context(), req.Question)
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuestion) || errors.Is(err, service.ErrNoReading) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errQuestionOrReading})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to answer", "ask_ai_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}
