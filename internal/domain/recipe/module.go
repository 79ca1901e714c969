package recipe

import (
	"recipe_community/internal/domain/recipe/handler"
	"recipe_community/internal/domain/recipe/repository"
	"recipe_community/internal/domain/recipe/service"
	"recipe_community/internal/pkg/middleware"
	"recipe_community/internal/pkg/registry"
	"recipe_community/pkg/richtext"
	"recipe_community/pkg/security"

	"github.com/gin-gonic/gin"
)

// RecipeModule 菜谱模块
type RecipeModule struct{}

func init() {
	registry.Register(&RecipeModule{})
}

func (m *RecipeModule) Name() string {
	return "recipe"
}

func (m *RecipeModule) Priority() int {
	return 40
}

func (m *RecipeModule) Init(ctx *registry.ModuleContext) error {
	repo := repository.NewRecipeRepository(ctx.DB)
	search := repository.NewSearchRepository(ctx.SQLX)
	svc := service.NewRecipeService(repo, search, ctx.Moderator, ctx.Roles, ctx.Profiles, ctx.Translator, richtext.New())
	h := handler.NewRecipeHandler(svc)

	setupRoutes(ctx.Router, h, ctx.Roles, ctx.Profiles)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.RecipeHandler, roles security.RoleChecker, accounts middleware.AccountChecker) {
	public := r.Group("/recipes")
	public.Use(middleware.OptionalAuthMiddleware())
	{
		public.GET("", h.ListRecipes)
		public.GET("/search", h.SearchRecipes)
		public.GET("/:id", h.GetRecipe)
		public.GET("/:id/translations/:lang", h.TranslateRecipe)
		public.GET("/:id/comments", h.ListComments)
	}

	auth := r.Group("")
	auth.Use(middleware.ActiveAuthMiddleware(accounts))
	{
		auth.POST("/recipes", h.CreateRecipe)
		auth.PUT("/recipes/:id", h.UpdateRecipe)
		auth.POST("/recipes/:id/comments", h.CreateComment)
		auth.PATCH("/recipe-comments/:id", h.UpdateComment)
		auth.DELETE("/recipe-comments/:id", h.DeleteComment)
	}

	admin := r.Group("/admin/recipes")
	admin.Use(middleware.ActiveAuthMiddleware(accounts), middleware.RequireRole(roles, security.RoleAdmin))
	{
		admin.PUT("/:id/publish", h.SetPublished)
	}
}
