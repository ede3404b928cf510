// Package httpapi is the public HTTP transport. It parses requests, resolves
// the bearer token, calls the services and maps their errors to statuses.
package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

// Users is the account surface the transport needs.
type Users interface {
	Signup(ctx context.Context, c services.Candidate) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	Logout(ctx context.Context, ac *services.AuthContext) error
	LogoutAll(ctx context.Context, ac *services.AuthContext) error
	Authenticate(ctx context.Context, rawToken string) (*services.AuthContext, error)
	UpdateProfile(ctx context.Context, ac *services.AuthContext, fields map[string]any) (*models.User, error)
	DeleteProfile(ctx context.Context, ac *services.AuthContext) error
	SetAvatar(ctx context.Context, ac *services.AuthContext, filename string, data []byte) error
	DeleteAvatar(ctx context.Context, ac *services.AuthContext) error
	GetAvatar(ctx context.Context, userID string) ([]byte, error)
	AvatarMaxBytes() int64
}

// Tasks is the task surface the transport needs.
type Tasks interface {
	Create(ctx context.Context, ac *services.AuthContext, fields map[string]any) (*models.Task, error)
	Get(ctx context.Context, ac *services.AuthContext, id string) (*models.Task, error)
	List(ctx context.Context, ac *services.AuthContext, filter models.TaskFilter) ([]*models.Task, error)
	Update(ctx context.Context, ac *services.AuthContext, id string, fields map[string]any) (*models.Task, error)
	Delete(ctx context.Context, ac *services.AuthContext, id string) (*models.Task, error)
}

type Server struct {
	users   Users
	tasks   Tasks
	logger  logging.Logger
	limiter *RateLimiter
}

func NewServer(users Users, tasks Tasks, limiter *RateLimiter, logger logging.Logger) *Server {
	return &Server{users: users, tasks: tasks, limiter: limiter, logger: logger}
}

// Handler builds the gin router with every route registered.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	// No proxy is trusted, so ClientIP is the peer address and the limiter
	// cannot be dodged with X-Forwarded-For.
	_ = r.SetTrustedProxies(nil)
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	public := r.Group("/users")
	{
		limited := public.Group("")
		if s.limiter != nil {
			limited.Use(s.limiter.LimitMiddleware())
		}
		limited.POST("", s.signup)
		limited.POST("/login", s.login)

		public.GET("/:id/avatar", s.getAvatar)
	}

	authed := r.Group("")
	authed.Use(s.authMiddleware())
	{
		authed.POST("/users/logout", s.logout)
		authed.POST("/users/logoutAll", s.logoutAll)
		authed.GET("/users/me", s.me)
		authed.PATCH("/users/me", s.updateMe)
		authed.DELETE("/users/me", s.deleteMe)
		authed.POST("/users/me/avatar", s.uploadAvatar)
		authed.DELETE("/users/me/avatar", s.deleteAvatar)

		authed.POST("/tasks", s.createTask)
		authed.GET("/tasks", s.listTasks)
		authed.GET("/tasks/:id", s.getTask)
		authed.PATCH("/tasks/:id", s.updateTask)
		authed.DELETE("/tasks/:id", s.deleteTask)
	}

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Debug(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
		)
	}
}
