package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avealov/rulehub/internal/common"
)

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, common.ErrorValidation)
		return
	}
	if err := validateUsername(req.Username); err != nil {
		abortWithError(c, err)
		return
	}
	if err := validateEmail(req.Email); err != nil {
		abortWithError(c, err)
		return
	}
	if err := validatePassword(req.Password); err != nil {
		abortWithError(c, err)
		return
	}

	user, err := s.auth.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newUserResponse(user, true))
}

func (s *Server) verifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "token required"})
		return
	}

	if err := s.auth.VerifyEmail(c.Request.Context(), token); err != nil {
		// The link is single-use; an unknown or spent token is a plain 400.
		if errors.Is(err, common.ErrorUnauthorized) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid or expired token"})
			return
		}
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"detail": "email verified"})
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, common.ErrorValidation)
		return
	}

	pair, _, err := s.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTokenResponse(pair))
}

func (s *Server) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, common.ErrorValidation)
		return
	}

	pair, err := s.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTokenResponse(pair))
}

func (s *Server) logout(c *gin.Context) {
	var req logoutRequest
	_ = c.ShouldBindJSON(&req)

	user := currentUser(c)
	if err := s.auth.Logout(c.Request.Context(), user.ID, req.RefreshToken); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"detail": "logged out"})
}

func (s *Server) requestPasswordReset(c *gin.Context) {
	var req requestResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, common.ErrorValidation)
		return
	}

	if err := s.auth.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		abortWithError(c, err)
		return
	}

	// Identical body whether or not the address exists.
	c.JSON(http.StatusOK, gin.H{"detail": "if the email exists, a reset message was sent"})
}

func (s *Server) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, common.ErrorValidation)
		return
	}
	if req.Token == "" && req.Code == "" {
		abortWithError(c, common.ErrorValidation)
		return
	}
	if err := validatePassword(req.NewPassword); err != nil {
		abortWithError(c, err)
		return
	}

	if err := s.auth.ResetPassword(c.Request.Context(), req.Token, req.Code, req.NewPassword); err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid or expired token"})
			return
		}
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"detail": "password reset"})
}
