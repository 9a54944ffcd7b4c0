package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avealov/rulehub/internal/common"
)

func (s *Server) listComments(c *gin.Context) {
	gameName := c.Query("game_name")
	page := c.Query("page")
	if gameName == "" || page == "" {
		abortWithError(c, common.ErrorValidation)
		return
	}

	listed, err := s.comments.List(c.Request.Context(), gameName, page)
	if err != nil {
		abortWithError(c, err)
		return
	}

	out := make([]commentResponse, 0, len(listed))
	for i := range listed {
		out = append(out, newCommentResponse(&listed[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createComment(c *gin.Context) {
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, common.ErrorValidation)
		return
	}

	created, err := s.comments.Create(c.Request.Context(), currentUser(c),
		req.GameName, req.Page, req.CommentText)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newCommentResponse(created))
}

func (s *Server) updateComment(c *gin.Context) {
	var req updateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, common.ErrorValidation)
		return
	}

	updated, err := s.comments.Update(c.Request.Context(), currentUser(c), c.Param("id"), req.CommentText)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newCommentResponse(updated))
}

func (s *Server) deleteComment(c *gin.Context) {
	if err := s.comments.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
