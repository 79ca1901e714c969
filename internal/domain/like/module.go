package like

import (
	"recipe_community/internal/domain/like/handler"
	"recipe_community/internal/domain/like/repository"
	"recipe_community/internal/domain/like/service"
	"recipe_community/internal/pkg/middleware"
	"recipe_community/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// LikeModule 点赞模块
type LikeModule struct{}

func init() {
	registry.Register(&LikeModule{})
}

func (m *LikeModule) Name() string {
	return "like"
}

func (m *LikeModule) Priority() int {
	return 20
}

func (m *LikeModule) Init(ctx *registry.ModuleContext) error {
	repo := repository.NewLikeRepository(ctx.DB)
	h := handler.NewLikeHandler(service.NewLikeService(repo))

	setupRoutes(ctx.Router, h, ctx.Profiles)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.LikeHandler, accounts middleware.AccountChecker) {
	g := r.Group("/likes")
	g.GET("", middleware.OptionalAuthMiddleware(), h.GetSummary)
	g.POST("/toggle", middleware.ActiveAuthMiddleware(accounts), h.ToggleLike)
}
