package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avealov/rulehub/internal/common"
	"github.com/avealov/rulehub/internal/server/services"
)

func (s *Server) me(c *gin.Context) {
	c.JSON(http.StatusOK, newUserResponse(currentUser(c), true))
}

func (s *Server) changeUsername(c *gin.Context) {
	var req changeUsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, common.ErrorValidation)
		return
	}
	if err := validateUsername(req.Username); err != nil {
		abortWithError(c, err)
		return
	}

	user := currentUser(c)
	if err := s.users.ChangeUsername(c.Request.Context(), user, req.Username); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user, true))
}

func (s *Server) changeEmail(c *gin.Context) {
	var req changeEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, common.ErrorValidation)
		return
	}
	if err := validateEmail(req.Email); err != nil {
		abortWithError(c, err)
		return
	}

	user := currentUser(c)
	if err := s.users.ChangeEmail(c.Request.Context(), user, req.Email); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user, true))
}

func (s *Server) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, common.ErrorValidation)
		return
	}
	if err := validatePassword(req.NewPassword); err != nil {
		abortWithError(c, err)
		return
	}

	user := currentUser(c)
	err := s.auth.ChangePassword(c.Request.Context(), user, req.CurrentPassword, req.NewPassword)
	if err != nil {
		// Wrong current password is a bad request, not a credential failure
		// of the session itself.
		if errors.Is(err, common.ErrorUnauthorized) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "current password is incorrect"})
			return
		}
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"detail": "password changed"})
}

func (s *Server) updateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, common.ErrorValidation)
		return
	}

	user := currentUser(c)
	err := s.users.UpdateProfile(c.Request.Context(), user, services.ProfileUpdate{
		Bio:                req.Bio,
		IsProfilePublic:    req.IsProfilePublic,
		IsCollectionPublic: req.IsCollectionPublic,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user, true))
}

func (s *Server) deleteMe(c *gin.Context) {
	if err := s.users.Delete(c.Request.Context(), currentUser(c).ID); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listUsers(c *gin.Context) {
	listed, err := s.users.List(c.Request.Context(), currentUser(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	out := make([]userResponse, 0, len(listed))
	for i := range listed {
		out = append(out, newUserResponse(&listed[i], false))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getProfile(c *gin.Context) {
	requester := currentUser(c)
	user, err := s.users.GetProfile(c.Request.Context(), requester, c.Param("username"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	includeEmail := requester != nil && (requester.ID == user.ID || requester.IsAdmin())
	c.JSON(http.StatusOK, newUserResponse(user, includeEmail))
}
