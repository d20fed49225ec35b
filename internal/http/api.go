package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"tinyfeed/internal/domain"
	"tinyfeed/internal/service"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles the domain services the handler depends on.
type Services struct {
	Users      service.UserService
	Posts      service.PostService
	Graph      service.GraphService
	Dashboards service.DashboardService
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users      service.UserService
	posts      service.PostService
	graph      service.GraphService
	dashboards service.DashboardService
	tokens     *TokenIssuer
	pinger     Pinger
	logger     *logrus.Logger
}

func NewHandler(services Services, tokens *TokenIssuer, pinger Pinger, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		users:      services.Users,
		posts:      services.Posts,
		graph:      services.Graph,
		dashboards: services.Dashboards,
		tokens:     tokens,
		pinger:     pinger,
		logger:     logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware(), requestLogger(h.logger))

	api := router.Group("/api")
	{
		api.POST("/session", h.createSession)
		api.DELETE("/session", h.deleteSession)
		api.GET("/health", h.health)

		authed := api.Group("", authMiddleware(h.tokens))
		authed.GET("/dashboard", h.getDashboard)
		authed.POST("/posts", h.createPost)
		authed.POST("/follow", h.follow)
	}
}

type sessionRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type postRequest struct {
	Message string `json:"message" form:"message"`
}

type followRequest struct {
	Username string `json:"username" form:"username"`
}

func (h *Handler) createSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.RegisterOrAuthenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, SessionResponse{
		Token: token,
		User:  userToResponse(*user),
	})
}

// deleteSession acknowledges a sign-out. Tokens are stateless, the client
// discards its copy.
func (h *Handler) deleteSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"signed_out": true})
}

func (h *Handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.pinger.Ping(ctx); err != nil {
		h.logger.WithError(err).Warn("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": service.ErrStoreUnavailable.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": "ok"})
}

func (h *Handler) getDashboard(c *gin.Context) {
	dash, err := h.dashboards.Assemble(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboardToResponse(*dash))
}

func (h *Handler) createPost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, report, err := h.posts.Publish(c.Request.Context(), currentUserID(c), req.Message)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, PublishResponse{
		PostID:    post.ID,
		Delivered: report.Delivered,
		Failed:    report.Failed,
	})
}

func (h *Handler) follow(c *gin.Context) {
	var req followRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.graph.Follow(c.Request.Context(), currentUserID(c), req.Username)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, FollowResponse{Result: result})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": service.ErrInvalidCredentials.Error()})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": service.ErrUserNotFound.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type SessionResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type PublishResponse struct {
	PostID    int64 `json:"post_id"`
	Delivered int   `json:"delivered"`
	Failed    int   `json:"failed"`
}

type FollowResponse struct {
	Result domain.FollowResult `json:"result"`
}

type TimelineEntryResponse struct {
	PostID         int64  `json:"post_id"`
	Message        string `json:"message"`
	AuthorUsername string `json:"author_username"`
	RelativeAge    string `json:"relative_age"`
}

type DashboardResponse struct {
	UserID      int64                   `json:"user_id"`
	Username    string                  `json:"username"`
	Timeline    []TimelineEntryResponse `json:"timeline"`
	Suggestions []string                `json:"suggestions"`
}

func userToResponse(user domain.User) UserResponse {
	return UserResponse{ID: user.ID, Username: user.Username}
}

func dashboardToResponse(dash domain.Dashboard) DashboardResponse {
	resp := DashboardResponse{
		UserID:      dash.UserID,
		Username:    dash.Username,
		Timeline:    make([]TimelineEntryResponse, len(dash.Timeline)),
		Suggestions: dash.Suggestions,
	}
	if resp.Suggestions == nil {
		resp.Suggestions = []string{}
	}
	for i := range dash.Timeline {
		resp.Timeline[i] = TimelineEntryResponse{
			PostID:         dash.Timeline[i].PostID,
			Message:        dash.Timeline[i].Message,
			AuthorUsername: dash.Timeline[i].AuthorUsername,
			RelativeAge:    dash.Timeline[i].RelativeAge,
		}
	}
	return resp
}
