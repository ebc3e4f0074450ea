package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dashboard-api/internal/service"
)

const identityContextKey = "identity"

// requireAuth is the session gate: a missing bearer token is 401, a token that
// fails verification is 403.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthenticated(c)
			return
		}

		identity, err := h.tokens.Verify(token)
		if err != nil {
			h.log(c).WithError(err).Debug("rejected bearer token")
			c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{
				Status:  "error",
				Message: "Invalid or expired token",
			})
			return
		}

		c.Set(identityContextKey, *identity)
		c.Request = c.Request.WithContext(service.WithIdentity(c.Request.Context(), *identity))
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func identityFrom(c *gin.Context) (service.Identity, bool) {
	return service.IdentityFromContext(c.Request.Context())
}

func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{
		Status:  "error",
		Message: "Access token required",
	})
}
