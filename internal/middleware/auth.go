package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yukikurage/sprint-planner-api/internal/constants"
	"github.com/yukikurage/sprint-planner-api/internal/database"
	apierrors "github.com/yukikurage/sprint-planner-api/internal/errors"
	"github.com/yukikurage/sprint-planner-api/internal/logger"
	"github.com/yukikurage/sprint-planner-api/internal/models"
)

// RequireAuth resolves the session user. Sessions of users that no longer
// exist are cleared and treated as anonymous.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := toUserID(session.Get(constants.ContextKeyUserID))
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}

		var count int64
		if err := database.GetDB().Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			logger.FromGin(c).Error().Err(err).Uint64("user_id", userID).Msg("Failed to verify session user")
			apierrors.InternalError(c, "")
			return
		}
		if count == 0 {
			session.Clear()
			_ = session.Save()
			apierrors.Unauthorized(c, "Session expired")
			return
		}

		c.Set(constants.ContextKeyUserID, userID)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	v, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return toUserID(v)
}

// toUserID accepts the integer types a session store may hand back after
// decoding.
func toUserID(v interface{}) (uint64, bool) {
	var id uint64
	switch n := v.(type) {
	case uint64:
		id = n
	case uint:
		id = uint64(n)
	case int:
		if n < 0 {
			return 0, false
		}
		id = uint64(n)
	case int64:
		if n < 0 {
			return 0, false
		}
		id = uint64(n)
	default:
		return 0, false
	}
	return id, id != 0
}
