package httpapi

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avealov/rulehub/internal/logging"
	"github.com/avealov/rulehub/internal/server/services"
)

// Server holds the handler dependencies and builds the gin router.
type Server struct {
	auth     *services.AuthService
	users    *services.UserService
	comments *services.CommentService
	db       *sql.DB
	log      logging.Logger
}

func NewServer(auth *services.AuthService, users *services.UserService,
	comments *services.CommentService, db *sql.DB, log logging.Logger) *Server {
	return &Server{auth: auth, users: users, comments: comments, db: db, log: log}
}

// Router wires every route. gin's Release mode is the caller's concern.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := r.Group("/auth")
	{
		auth.POST("/register", s.register)
		auth.GET("/verify-email", s.verifyEmail)
		auth.POST("/login", s.login)
		auth.POST("/refresh", s.refresh)
		auth.POST("/logout", s.requireAuth(), s.logout)
		auth.POST("/request-password-reset", s.requestPasswordReset)
		auth.POST("/reset-password", s.resetPassword)
	}

	users := r.Group("/users")
	{
		users.GET("", s.optionalAuth(), s.listUsers)
		users.GET("/me", s.requireAuth(), s.me)
		users.PATCH("/me/username", s.requireAuth(), s.changeUsername)
		users.PATCH("/me/email", s.requireAuth(), s.changeEmail)
		users.PATCH("/me/password", s.requireAuth(), s.changePassword)
		users.PATCH("/me/profile", s.requireAuth(), s.updateProfile)
		users.DELETE("/me", s.requireAuth(), s.deleteMe)
		users.GET("/:username", s.optionalAuth(), s.getProfile)
	}

	comments := r.Group("/comments")
	{
		comments.GET("", s.listComments)
		comments.POST("", s.requireAuth(), s.createComment)
		comments.PUT("/:id", s.requireAuth(), s.updateComment)
		comments.DELETE("/:id", s.requireAuth(), s.deleteComment)
	}

	return r
}

func (s *Server) healthz(c *gin.Context) {
	if err := s.db.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
