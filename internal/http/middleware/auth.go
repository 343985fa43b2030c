package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/knowitapp/knowit-backend/internal/http/response"
	"github.com/knowitapp/knowit-backend/internal/platform/apierr"
	"github.com/knowitapp/knowit-backend/internal/platform/logger"
	"github.com/knowitapp/knowit-backend/internal/requestdata"
	"github.com/knowitapp/knowit-backend/internal/services"
)

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	middlewareLog := log.With("middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLog, authService: authService}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", apierr.Unauthorized("unauthorized", nil))
			c.Abort()
			return
		}

		ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			response.RespondServiceError(c, err)
			c.Abort()
			return
		}
		c.Request = c.Request.WithContext(ctx)

		rd := requestdata.GetRequestData(ctx)
		if rd == nil || rd.UserID == 0 {
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", apierr.Unauthorized("unauthorized", nil))
			c.Abort()
			return
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	return ""
}
