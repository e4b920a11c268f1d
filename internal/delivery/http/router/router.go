// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"meets/internal/delivery/http/middleware"
	"meets/internal/delivery/http/router/handler"
	"meets/internal/delivery/ws"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler         *handler.AuthHandler
	UserHandler         *handler.UserHandler
	ChatHandler         *handler.ChatHandler
	PostHandler         *handler.PostHandler
	WsGateway           *ws.Gateway
	AuthMiddleware      *middleware.AuthMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler    *handler.AuthHandler
	userHandler    *handler.UserHandler
	chatHandler    *handler.ChatHandler
	postHandler    *handler.PostHandler
	wsGateway      *ws.Gateway
	authMiddleware *middleware.AuthMiddleware
	rateLimit      *middleware.RateLimitMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:    params.AuthHandler,
		userHandler:    params.UserHandler,
		chatHandler:    params.ChatHandler,
		postHandler:    params.PostHandler,
		wsGateway:      params.WsGateway,
		authMiddleware: params.AuthMiddleware,
		rateLimit:      params.RateLimitMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Chat websocket. The gateway does its own token check since browsers
	// cannot set headers on websocket upgrades.
	e.GET("/ws", r.wsGateway.Serve)

	authGroup := e.Group("/auth")
	{
		authGroup.POST("/signup", r.authHandler.SignUp, r.rateLimit.SignUp())
		authGroup.POST("/signin", r.authHandler.SignIn, r.rateLimit.SignIn())
		authGroup.GET("/refresh", r.authHandler.Refresh, r.rateLimit.Refresh())
		authGroup.POST("/logout", r.authHandler.SignOut, r.authMiddleware.Authenticate)
		authGroup.GET("/profile", r.authHandler.Profile, r.authMiddleware.Authenticate)

		authGroup.GET("/google", r.authHandler.GoogleLogin)
		authGroup.GET("/google/redirect", r.authHandler.GoogleCallback)

		authGroup.POST("/request-reset-password", r.authHandler.RequestPasswordReset, r.rateLimit.Default())
		authGroup.POST("/reset-password", r.authHandler.ResetPassword, r.rateLimit.Default())
		authGroup.GET("/verify-reset-token/:token/:userId", r.authHandler.VerifyResetToken)
	}

	userGroup := e.Group("/users")
	userGroup.Use(r.authMiddleware.Authenticate)
	{
		userGroup.GET("/current-user", r.userHandler.CurrentUser)
		userGroup.GET("/search/:query", r.userHandler.Search)
		userGroup.GET("/:id/profile", r.userHandler.GetProfile)
		userGroup.PUT("/:id/profile", r.userHandler.UpsertProfile)
		userGroup.POST("/:id/follow", r.userHandler.Follow)
		userGroup.POST("/:id/unfollow", r.userHandler.Unfollow)
		userGroup.GET("/:id/is-following", r.userHandler.IsFollowing)
		userGroup.GET("/:id/followers", r.userHandler.Followers)
		userGroup.GET("/:id/following", r.userHandler.Following)
		userGroup.GET("/:id/posts", r.postHandler.ByUser)
		userGroup.DELETE("/:id", r.userHandler.DeleteAccount)
	}

	chatGroup := e.Group("/chats")
	chatGroup.Use(r.authMiddleware.Authenticate)
	{
		chatGroup.POST("", r.chatHandler.Create)
		chatGroup.POST("/join", r.chatHandler.Join)
		chatGroup.GET("", r.chatHandler.List)
		chatGroup.GET("/following-to-chat", r.chatHandler.FollowingToChat)
		chatGroup.GET("/:name/messages", r.chatHandler.Messages)
		chatGroup.POST("/:name/messages", r.chatHandler.Send)
		chatGroup.POST("/:name/messages/batch", r.chatHandler.SendBatch)
		chatGroup.DELETE("/messages/:id", r.chatHandler.DeleteMessage)
		chatGroup.GET("/:name/new-messages-count", r.chatHandler.NewMessagesCount)
		chatGroup.POST("/:name/read", r.chatHandler.MarkRead)
		chatGroup.GET("/:name/invite-candidates", r.chatHandler.InviteCandidates)
		chatGroup.GET("/:name/qrcode", r.chatHandler.InviteQR)
	}

	postGroup := e.Group("/posts")
	postGroup.Use(r.authMiddleware.Authenticate)
	{
		postGroup.POST("", r.postHandler.Create)
		postGroup.GET("/feed", r.postHandler.Feed, r.rateLimit.Default())
		postGroup.GET("/:id", r.postHandler.Get)
		postGroup.PUT("/:id", r.postHandler.Update)
		postGroup.DELETE("/:id", r.postHandler.Delete)
		postGroup.POST("/:id/like", r.postHandler.Like)
		postGroup.DELETE("/:id/like", r.postHandler.Unlike)
	}
}
