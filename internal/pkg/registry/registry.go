package registry

import (
	"context"
	"sort"

	"recipe_community/internal/pkg/moderation"
	"recipe_community/internal/pkg/realtime"
	"recipe_community/internal/pkg/translate"
	"recipe_community/internal/pkg/uploader"
	"recipe_community/internal/pkg/worker"
	"recipe_community/pkg/cache"
	"recipe_community/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ProfileLookup 身份服务提供的展示信息
type ProfileLookup interface {
	DisplayName(ctx context.Context, userID string) (string, error)
	Exists(ctx context.Context, userID string) (bool, error)
}

// ModuleContext 模块初始化所需的上下文
type ModuleContext struct {
	DB     *gorm.DB
	SQLX   *sqlx.DB // 只读查询（全文检索等）
	Redis  *redis.Client
	Router *gin.Engine

	Cache      cache.CacheService
	Moderator  moderation.Checker
	Hub        *realtime.Hub
	Publisher  realtime.Publisher
	Notifier   worker.Notifier
	Translator translate.Translator
	Uploader   uploader.Uploader // 未配置 OSS 时为 nil

	// 由 user 模块初始化时填充，供后续模块使用
	Roles    security.RoleChecker
	Profiles ProfileLookup
}

// Module 模块接口
type Module interface {
	// Name 返回模块名称
	Name() string

	// Init 初始化模块（依赖注入、路由注册等）
	Init(ctx *ModuleContext) error

	// Priority 返回初始化优先级（数字越小越先初始化）
	// user 模块需要先于其他模块初始化
	Priority() int
}

// moduleRegistry 全局模块注册表
var moduleRegistry = make(map[string]Module)

// Register 注册模块
func Register(module Module) {
	moduleRegistry[module.Name()] = module
}

// Ordered 按优先级排序，同优先级按名称
func Ordered() []Module {
	modules := make([]Module, 0, len(moduleRegistry))
	for _, m := range moduleRegistry {
		modules = append(modules, m)
	}
	sort.Slice(modules, func(i, j int) bool {
		if modules[i].Priority() != modules[j].Priority() {
			return modules[i].Priority() < modules[j].Priority()
		}
		return modules[i].Name() < modules[j].Name()
	})
	return modules
}

// InitModules 按优先级初始化所有模块
func InitModules(ctx *ModuleContext) error {
	for _, module := range Ordered() {
		if err := module.Init(ctx); err != nil {
			return err
		}
	}
	return nil
}
