package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const operatorCtxKey = "operatorId"

var (
	errNoOperatorToken  = errors.New("operator token required")
	errMalformedBearer  = errors.New("expected 'Bearer <token>' in Authorization header")
	errOperatorRejected = errors.New("operator token invalid or expired")
)

// bearerToken extracts the token from an Authorization header. The scheme
// is matched case-insensitively.
func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errNoOperatorToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", errMalformedBearer
	}
	return token, nil
}

// operatorMiddleware guards the operator API with the JWT issued by /auth/sign-in.
func (h *Handler) operatorMiddleware(c *gin.Context) {
	token, err := bearerToken(c.GetHeader("Authorization"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	operatorID, err := h.services.ParseToken(token)
	if err != nil {
		if h.log != nil {
			h.log.Infow("operator_token_rejected", "err", err, "path", c.FullPath(), "remote", c.ClientIP())
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errOperatorRejected.Error()})
		return
	}

	c.Set(operatorCtxKey, operatorID)
	c.Next()
}

// operatorID returns the id set by operatorMiddleware, or 0.
func operatorID(c *gin.Context) int {
	return c.GetInt(operatorCtxKey)
}
