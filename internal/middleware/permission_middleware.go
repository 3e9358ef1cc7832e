package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/zorvex/zorvex-backend/internal/authz"
	apperrors "github.com/zorvex/zorvex-backend/internal/errors"
)

// RequirePermission answers 403 unless the role in the context may perform
// action on feature.
func RequirePermission(feature authz.Feature, action authz.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := GetUserRole(c)
		if !authz.HasPermission(role, feature, action) {
			userID, _ := GetUserID(c)
			GetLoggerFromContext(c).Warn("Permission denied", map[string]interface{}{
				"user_id": userID,
				"role":    role,
				"feature": feature,
				"action":  action,
			})
			apperrors.Forbidden(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}
