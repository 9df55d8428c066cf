package gym

import (
	"errors"
	"net/http"

	"gymhub/internal/api"
	"gymhub/internal/auth"
	"gymhub/internal/logger"

	"github.com/gin-gonic/gin"
)

const ContextAccess = "gym_access"

// Access is what the current user may do in one gym: everything as its
// owner, or what their staff record allows.
type Access struct {
	Gym   *Gym
	Owner bool
	Staff *Staff
}

func (a *Access) Can(c Capability) bool {
	if a.Owner {
		return true
	}
	return a.Staff != nil && a.Staff.Can(c)
}

// RequireAccess resolves the :gymID path parameter against the caller and
// stores the result for GetAccess. Gyms the caller has no relation to are
// reported as missing.
func (h *Handler) RequireAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		gymID, ok := api.ParamID(c, "gymID", "gym")
		if !ok {
			c.Abort()
			return
		}
		userID, _ := auth.GetUserID(c)
		role, _ := auth.GetUserRole(c)

		access, err := h.service.ResolveAccess(c.Request.Context(), userID, role, gymID)
		if err != nil {
			switch {
			case errors.Is(err, ErrGymNotFound):
				c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Gym not found"})
			case errors.Is(err, ErrNoGymAccess):
				c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "Access denied"})
			default:
				logger.WithError(err).Error("resolve gym access failed")
				c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
			}
			c.Abort()
			return
		}

		c.Set(ContextAccess, access)
		c.Next()
	}
}

// RequireCapability must run after RequireAccess.
func RequireCapability(capability Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		access, ok := GetAccess(c)
		if !ok || !access.Can(capability) {
			c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "Access denied"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireOwner must run after RequireAccess.
func RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		access, ok := GetAccess(c)
		if !ok || !access.Owner {
			c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "Only the gym owner can do this"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func GetAccess(c *gin.Context) (*Access, bool) {
	v, exists := c.Get(ContextAccess)
	if !exists {
		return nil, false
	}
	a, ok := v.(*Access)
	return a, ok
}
