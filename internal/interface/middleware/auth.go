package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vidora/vidora-api/pkg/helpers"
	"github.com/vidora/vidora-api/pkg/response"
)

const (
	CtxUserIDKey   = "userID"
	CtxUsernameKey = "username"
	CtxEmailKey    = "userEmail"
)

// Auth validates the access token from the accessToken cookie, falling back
// to an Authorization bearer header for non-cookie clients. On success it
// attaches the authenticated identity to the context; handlers downstream
// trust these keys.
func Auth(jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			response.Error[any](c, http.StatusUnauthorized, "missing access token", nil)
			c.Abort()
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Error[any](c, http.StatusUnauthorized, "invalid access token", nil)
			c.Abort()
			return
		}
		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxUsernameKey, claims.Username)
		c.Set(CtxEmailKey, claims.Email)
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) string {
	if tok, err := c.Cookie(helpers.AccessTokenCookie); err == nil && tok != "" {
		return tok
	}
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}
