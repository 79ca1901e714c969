package messaging

import (
	"recipe_community/internal/domain/messaging/handler"
	"recipe_community/internal/domain/messaging/repository"
	"recipe_community/internal/domain/messaging/service"
	"recipe_community/internal/pkg/middleware"
	"recipe_community/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// MessagingModule 私信模块
type MessagingModule struct{}

func init() {
	registry.Register(&MessagingModule{})
}

func (m *MessagingModule) Name() string {
	return "messaging"
}

func (m *MessagingModule) Priority() int {
	return 30
}

func (m *MessagingModule) Init(ctx *registry.ModuleContext) error {
	repo := repository.NewMessagingRepository(ctx.DB)
	svc := service.NewMessagingService(repo, ctx.Moderator, ctx.Publisher, ctx.Notifier, ctx.Profiles)
	h := handler.NewMessagingHandler(svc, ctx.Hub)

	setupRoutes(ctx.Router, h, ctx.Profiles)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.MessagingHandler, accounts middleware.AccountChecker) {
	g := r.Group("/conversations")
	g.Use(middleware.ActiveAuthMiddleware(accounts))
	{
		g.GET("", h.ListConversations)
		g.POST("", h.StartConversation)
		g.GET("/:id/messages", h.ListMessages)
		g.POST("/:id/messages", h.SendMessage)
	}

	r.GET("/ws/conversations/:id", middleware.QueryTokenMiddleware("token"), middleware.ActiveAuthMiddleware(accounts), h.Subscribe)
}
