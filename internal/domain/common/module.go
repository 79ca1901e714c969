package common

import (
	"recipe_community/internal/domain/common/handler"
	"recipe_community/internal/pkg/middleware"
	"recipe_community/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// CommonModule 通用功能模块
type CommonModule struct{}

func init() {
	registry.Register(&CommonModule{})
}

func (m *CommonModule) Name() string {
	return "common"
}

func (m *CommonModule) Priority() int {
	return 100 // 最后初始化
}

func (m *CommonModule) Init(ctx *registry.ModuleContext) error {
	setupRoutes(ctx.Router, handler.NewUploadHandler(ctx.Uploader), ctx.Profiles)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.UploadHandler, accounts middleware.AccountChecker) {
	g := r.Group("/upload")
	g.Use(middleware.ActiveAuthMiddleware(accounts))
	{
		g.POST("", h.UploadFiles)
		g.POST("/sign", h.SignUpload)
	}
}
