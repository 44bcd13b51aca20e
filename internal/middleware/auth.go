package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/olehkozhan/contactbook/internal/models"
	"github.com/olehkozhan/contactbook/internal/services"
	"github.com/olehkozhan/contactbook/pkg/errors"
	"github.com/olehkozhan/contactbook/pkg/response"
)

const (
	CtxUserKey   = "authUser"
	CtxUserIDKey = "userID"
)

// Auth enforces bearer-token authentication. The token must carry a valid
// signature and expiry and must equal the account's stored session token, so
// tokens revoked by a later login or logout are rejected.
func Auth(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		token := strings.TrimSpace(authz[7:])
		user, err := auth.ResolveSession(c.Request.Context(), token)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxUserKey, user)
		c.Set(CtxUserIDKey, user.ID)

		c.Next()
	}
}

// CurrentUser extracts the authenticated account placed by Auth.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(CtxUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}
