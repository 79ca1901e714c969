package user

import (
	"recipe_community/internal/domain/user/handler"
	"recipe_community/internal/domain/user/repository"
	"recipe_community/internal/domain/user/service"
	"recipe_community/internal/pkg/config"
	"recipe_community/internal/pkg/middleware"
	"recipe_community/internal/pkg/otp"
	"recipe_community/internal/pkg/registry"
	"recipe_community/pkg/security"

	"github.com/gin-gonic/gin"
)

// UserModule 用户模块
type UserModule struct{}

func init() {
	// 自动注册模块
	registry.Register(&UserModule{})
}

func (m *UserModule) Name() string {
	return "user"
}

func (m *UserModule) Priority() int {
	// 用户模块优先级最高，其他模块依赖它提供的角色检查与昵称
	return 1
}

func (m *UserModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	userRepo := repository.NewUserRepository(ctx.DB)
	otpService := otp.NewOTPService(ctx.Redis, config.GlobalConfig.App.TestOTPCode)
	userService := service.NewCachedUserService(service.NewUserService(userRepo, otpService), ctx.Cache)
	userHandler := handler.NewUserHandler(userService)

	// 2. 暴露给其他模块
	ctx.Roles = userService
	ctx.Profiles = userService

	// 3. 路由注册
	setupRoutes(ctx.Router, userHandler, userService, userService)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.UserHandler, roles security.RoleChecker, accounts middleware.AccountChecker) {
	// 公开路由
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/otp", h.SendOTP)           // 发送验证码
		authGroup.POST("/login", h.LoginOrRegister) // 登录/注册
	}

	userGroup := r.Group("/users")
	{
		userGroup.GET("/me", middleware.ActiveAuthMiddleware(accounts), h.GetMe)
		userGroup.PUT("/me", middleware.ActiveAuthMiddleware(accounts), h.UpdateMe)
		userGroup.GET("/:id", h.GetProfile)
	}

	admin := r.Group("/admin/users")
	admin.Use(middleware.ActiveAuthMiddleware(accounts), middleware.RequireRole(roles, security.RoleAdmin))
	{
		admin.GET("", h.GetUsers)
		admin.PUT("/:id/role", h.SetRole)
		admin.DELETE("/:id", h.DeleteUser)
	}
}
