package forum

import (
	"recipe_community/internal/domain/forum/handler"
	"recipe_community/internal/domain/forum/repository"
	"recipe_community/internal/domain/forum/service"
	"recipe_community/internal/pkg/middleware"
	"recipe_community/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// ForumModule 社区讨论模块
type ForumModule struct{}

func init() {
	registry.Register(&ForumModule{})
}

func (m *ForumModule) Name() string {
	return "forum"
}

func (m *ForumModule) Priority() int {
	return 10
}

func (m *ForumModule) Init(ctx *registry.ModuleContext) error {
	repo := repository.NewForumRepository(ctx.DB)
	svc := service.NewForumService(repo, ctx.Moderator, ctx.Profiles)
	h := handler.NewForumHandler(svc)

	setupRoutes(ctx.Router, h, ctx.Profiles)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.ForumHandler, accounts middleware.AccountChecker) {
	g := r.Group("/forum")

	g.GET("/threads", h.ListThreads)
	g.GET("/threads/:id", h.GetThread)
	g.GET("/threads/:id/posts", h.ListPosts)

	auth := g.Group("")
	auth.Use(middleware.ActiveAuthMiddleware(accounts))
	{
		auth.POST("/threads", h.CreateThread)
		auth.POST("/threads/:id/posts", h.CreatePost)
		auth.PATCH("/posts/:id", h.UpdatePost)
		auth.DELETE("/posts/:id", h.DeletePost)
	}
}
