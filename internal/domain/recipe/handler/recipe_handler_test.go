package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"recipe_community/internal/domain/recipe/model"
	"recipe_community/internal/domain/recipe/service"
	"recipe_community/internal/pkg/middleware"
	"recipe_community/pkg/apperr"
	basemodel "recipe_community/pkg/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRecipeService struct {
	mock.Mock
}

func (m *MockRecipeService) CreateRecipe(ctx context.Context, authorID string, in service.RecipeInput) (*model.Recipe, error) {
	args := m.Called(ctx, authorID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Recipe), args.Error(1)
}

func (m *MockRecipeService) UpdateRecipe(ctx context.Context, actorID, recipeID string, in service.RecipeInput) (*model.Recipe, error) {
	args := m.Called(ctx, actorID, recipeID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Recipe), args.Error(1)
}

func (m *MockRecipeService) GetRecipe(ctx context.Context, viewerID, recipeID string) (*model.RecipeView, error) {
	args := m.Called(ctx, viewerID, recipeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RecipeView), args.Error(1)
}

func (m *MockRecipeService) ListRecipes(ctx context.Context, country string, page, limit int) ([]model.Recipe, int64, error) {
	args := m.Called(ctx, country, page, limit)
	return args.Get(0).([]model.Recipe), args.Get(1).(int64), args.Error(2)
}

func (m *MockRecipeService) SearchRecipes(ctx context.Context, query string, page, limit int) ([]model.RecipeSummary, int64, error) {
	args := m.Called(ctx, query, page, limit)
	return args.Get(0).([]model.RecipeSummary), args.Get(1).(int64), args.Error(2)
}

func (m *MockRecipeService) SetPublished(ctx context.Context, actorID, recipeID string, published bool) error {
	return m.Called(ctx, actorID, recipeID, published).Error(0)
}

func (m *MockRecipeService) TranslateRecipe(ctx context.Context, viewerID, recipeID, language string) (*model.RecipeTranslation, error) {
	args := m.Called(ctx, viewerID, recipeID, language)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RecipeTranslation), args.Error(1)
}

func (m *MockRecipeService) CreateComment(ctx context.Context, in service.CreateCommentInput) (*model.RecipeComment, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RecipeComment), args.Error(1)
}

func (m *MockRecipeService) UpdateComment(ctx context.Context, actorID, commentID, content string) (*model.RecipeComment, error) {
	args := m.Called(ctx, actorID, commentID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RecipeComment), args.Error(1)
}

func (m *MockRecipeService) DeleteComment(ctx context.Context, actorID, commentID string) error {
	return m.Called(ctx, actorID, commentID).Error(0)
}

func (m *MockRecipeService) ListComments(ctx context.Context, viewerID, recipeID string) ([]model.RecipeComment, error) {
	args := m.Called(ctx, viewerID, recipeID)
	return args.Get(0).([]model.RecipeComment), args.Error(1)
}

func asUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Set(middleware.ContextUserID, userID)
		}
		c.Next()
	}
}

func setupRouter(t *testing.T, svc service.RecipeService, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	require.NoError(t, middleware.SetupValidator())

	h := NewRecipeHandler(svc)
	r := gin.New()
	r.Use(asUser(userID))
	r.GET("/recipes", h.ListRecipes)
	r.GET("/recipes/search", h.SearchRecipes)
	r.GET("/recipes/:id", h.GetRecipe)
	r.POST("/recipes", h.CreateRecipe)
	r.PUT("/recipes/:id", h.UpdateRecipe)
	r.GET("/recipes/:id/translations/:lang", h.TranslateRecipe)
	r.GET("/recipes/:id/comments", h.ListComments)
	r.POST("/recipes/:id/comments", h.CreateComment)
	r.PATCH("/recipe-comments/:id", h.UpdateComment)
	r.DELETE("/recipe-comments/:id", h.DeleteComment)
	r.PUT("/admin/recipes/:id/publish", h.SetPublished)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestCreateRecipeHandler(t *testing.T) {
	t.Run("Unauthenticated", func(t *testing.T) {
		svc := new(MockRecipeService)
		w := do(setupRouter(t, svc, ""), http.MethodPost, "/recipes", `{"country":"Italy","title":"Caponata"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("BlankTitle", func(t *testing.T) {
		svc := new(MockRecipeService)
		w := do(setupRouter(t, svc, "u1"), http.MethodPost, "/recipes", `{"country":"Italy","title":"   "}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "CreateRecipe", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("BadImageURL", func(t *testing.T) {
		svc := new(MockRecipeService)
		w := do(setupRouter(t, svc, "u1"), http.MethodPost, "/recipes", `{"country":"Italy","title":"Caponata","photoUrls":["not a url"]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("UnknownField", func(t *testing.T) {
		svc := new(MockRecipeService)
		w := do(setupRouter(t, svc, "u1"), http.MethodPost, "/recipes", `{"country":"Italy","title":"Caponata","published":true}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Created", func(t *testing.T) {
		svc := new(MockRecipeService)
		svc.On("CreateRecipe", mock.Anything, "u1", service.RecipeInput{
			Country: "Italy", Title: "Caponata", Directions: "Fry.",
		}).Return(&model.Recipe{BaseModel: basemodel.BaseModel{ID: "r1"}, Title: "Caponata"}, nil)

		w := do(setupRouter(t, svc, "u1"), http.MethodPost, "/recipes", `{"country":"Italy","title":"Caponata","directions":"Fry."}`)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"id":"r1"`)
		assert.Contains(t, w.Body.String(), `"published":false`)
	})
}

func TestGetRecipeHandler(t *testing.T) {
	svc := new(MockRecipeService)
	r := setupRouter(t, svc, "")

	svc.On("GetRecipe", mock.Anything, "", "hidden").Return(nil, apperr.NotFound("recipe"))
	w := do(r, http.MethodGet, "/recipes/hidden", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	svc.On("GetRecipe", mock.Anything, "", "r1").Return(&model.RecipeView{
		Recipe:         &model.Recipe{BaseModel: basemodel.BaseModel{ID: "r1"}, Directions: "**Fry**"},
		DirectionsHTML: "<p><strong>Fry</strong></p>",
	}, nil)
	w = do(r, http.MethodGet, "/recipes/r1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			ID             string `json:"id"`
			Directions     string `json:"directions"`
			DirectionsHTML string `json:"directionsHtml"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "r1", body.Data.ID)
	assert.Equal(t, "**Fry**", body.Data.Directions)
	assert.Equal(t, "<p><strong>Fry</strong></p>", body.Data.DirectionsHTML)
}

func TestListAndSearchHandlers(t *testing.T) {
	svc := new(MockRecipeService)
	r := setupRouter(t, svc, "")

	svc.On("ListRecipes", mock.Anything, "Italy", 2, 5).Return([]model.Recipe(nil), int64(0), nil)
	w := do(r, http.MethodGet, "/recipes?country=Italy&page=2&limit=5", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"list":[]`)

	w = do(r, http.MethodGet, "/recipes/search", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.On("SearchRecipes", mock.Anything, "eggplant", 1, 10).
		Return([]model.RecipeSummary{{ID: "r1", Title: "Caponata", Rank: 0.5}}, int64(1), nil)
	w = do(r, http.MethodGet, "/recipes/search?q=eggplant", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rank":0.5`)
}

func TestSetPublishedHandler(t *testing.T) {
	svc := new(MockRecipeService)
	r := setupRouter(t, svc, "admin")

	w := do(r, http.MethodPut, "/admin/recipes/r1/publish", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.On("SetPublished", mock.Anything, "admin", "r1", false).Return(nil)
	w = do(r, http.MethodPut, "/admin/recipes/r1/publish", `{"published":false}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"published":false`)
}

func TestTranslateHandler(t *testing.T) {
	svc := new(MockRecipeService)
	r := setupRouter(t, svc, "")

	svc.On("TranslateRecipe", mock.Anything, "", "r1", "xx").Return(nil, apperr.Validation("unsupported language: xx"))
	w := do(r, http.MethodGet, "/recipes/r1/translations/xx", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.On("TranslateRecipe", mock.Anything, "", "r1", "en").Return(&model.RecipeTranslation{RecipeID: "r1", Language: "en", Title: "Caponata"}, nil)
	w = do(r, http.MethodGet, "/recipes/r1/translations/en", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"language":"en"`)
}

func TestCommentHandlers(t *testing.T) {
	svc := new(MockRecipeService)
	r := setupRouter(t, svc, "u1")

	svc.On("ListComments", mock.Anything, "u1", "r1").Return([]model.RecipeComment(nil), nil)
	w := do(r, http.MethodGet, "/recipes/r1/comments", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)

	parent := "c1"
	svc.On("CreateComment", mock.Anything, service.CreateCommentInput{
		RecipeID: "r1", ParentID: &parent, AuthorID: "u1", Content: "yum",
	}).Return(&model.RecipeComment{BaseModel: basemodel.BaseModel{ID: "c2"}, ParentID: &parent, Content: "yum"}, nil)
	w = do(r, http.MethodPost, "/recipes/r1/comments", `{"parentId":"c1","content":"yum"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"parentId":"c1"`)

	svc.On("UpdateComment", mock.Anything, "u1", "c9", "edit").Return(nil, apperr.Forbidden("you do not own this resource"))
	w = do(r, http.MethodPatch, "/recipe-comments/c9", `{"content":"edit"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	svc.On("DeleteComment", mock.Anything, "u1", "c2").Return(nil)
	w = do(r, http.MethodDelete, "/recipe-comments/c2", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
