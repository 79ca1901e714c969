package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"recipe_community/internal/domain/recipe/model"
	"recipe_community/internal/pkg/moderation"
	"recipe_community/pkg/apperr"
	basemodel "recipe_community/pkg/model"
	"recipe_community/pkg/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	recipeID  = "6f1c2d4e-0000-4000-8000-000000000001"
	commentID = "6f1c2d4e-0000-4000-8000-000000000002"
	otherID   = "6f1c2d4e-0000-4000-8000-000000000003"
)

type MockRecipeRepository struct {
	mock.Mock
}

func (m *MockRecipeRepository) Create(ctx context.Context, recipe *model.Recipe) error {
	args := m.Called(ctx, recipe)
	if args.Error(0) == nil {
		recipe.ID = "new-recipe"
	}
	return args.Error(0)
}

func (m *MockRecipeRepository) GetByID(ctx context.Context, id string) (*model.Recipe, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Recipe), args.Error(1)
}

func (m *MockRecipeRepository) Update(ctx context.Context, recipe *model.Recipe) error {
	return m.Called(ctx, recipe).Error(0)
}

func (m *MockRecipeRepository) SetPublished(ctx context.Context, id string, published bool) (bool, error) {
	args := m.Called(ctx, id, published)
	return args.Bool(0), args.Error(1)
}

func (m *MockRecipeRepository) ListPublished(ctx context.Context, country string, offset, limit int) ([]model.Recipe, int64, error) {
	args := m.Called(ctx, country, offset, limit)
	return args.Get(0).([]model.Recipe), args.Get(1).(int64), args.Error(2)
}

func (m *MockRecipeRepository) GetTranslation(ctx context.Context, recipeID, language string) (*model.RecipeTranslation, error) {
	args := m.Called(ctx, recipeID, language)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RecipeTranslation), args.Error(1)
}

func (m *MockRecipeRepository) UpsertTranslation(ctx context.Context, tr *model.RecipeTranslation) error {
	return m.Called(ctx, tr).Error(0)
}

func (m *MockRecipeRepository) CreateComment(ctx context.Context, comment *model.RecipeComment) error {
	return m.Called(ctx, comment).Error(0)
}

func (m *MockRecipeRepository) GetComment(ctx context.Context, id string) (*model.RecipeComment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RecipeComment), args.Error(1)
}

func (m *MockRecipeRepository) UpdateCommentContent(ctx context.Context, comment *model.RecipeComment) error {
	return m.Called(ctx, comment).Error(0)
}

func (m *MockRecipeRepository) DeleteComment(ctx context.Context, id string) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRecipeRepository) ListComments(ctx context.Context, recipeID string) ([]model.RecipeComment, error) {
	args := m.Called(ctx, recipeID)
	return args.Get(0).([]model.RecipeComment), args.Error(1)
}

type MockSearch struct {
	mock.Mock
}

func (m *MockSearch) Search(ctx context.Context, query string, offset, limit int) ([]model.RecipeSummary, int64, error) {
	args := m.Called(ctx, query, offset, limit)
	return args.Get(0).([]model.RecipeSummary), args.Get(1).(int64), args.Error(2)
}

type MockRoles struct {
	mock.Mock
}

func (m *MockRoles) HasRole(ctx context.Context, userID string, role security.Role) (bool, error) {
	args := m.Called(ctx, userID, role)
	return args.Bool(0), args.Error(1)
}

type MockTranslator struct {
	mock.Mock
}

func (m *MockTranslator) Translate(ctx context.Context, text, lang string) (string, error) {
	args := m.Called(ctx, text, lang)
	return args.String(0), args.Error(1)
}

type MockNames struct {
	mock.Mock
}

func (m *MockNames) DisplayName(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

type fixture struct {
	repo       *MockRecipeRepository
	search     *MockSearch
	roles      *MockRoles
	names      *MockNames
	translator *MockTranslator
	svc        RecipeService
}

func newFixture() *fixture {
	f := &fixture{
		repo:       new(MockRecipeRepository),
		search:     new(MockSearch),
		roles:      new(MockRoles),
		names:      new(MockNames),
		translator: new(MockTranslator),
	}
	f.svc = NewRecipeService(f.repo, f.search, moderation.NewGate(nil, nil), f.roles, f.names, f.translator, nil)
	return f
}

func recipe(published bool) *model.Recipe {
	return &model.Recipe{
		BaseModel:  basemodel.BaseModel{ID: recipeID, UpdatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
		UserID:     "owner",
		Country:    "Italy",
		Title:      "Caponata",
		History:    "From **Palermo**",
		Directions: "1. Fry the eggplant\n2. Add <script>alert(1)</script> vinegar",
		Published:  published,
	}
}

var validInput = RecipeInput{
	Country:    "Italy",
	Region:     "Sicily",
	Title:      "Caponata",
	RecipeBody: "Eggplant, celery, capers, grapes optional",
	Directions: "Fry in a wide pan.",
}

func TestCreateRecipe(t *testing.T) {
	ctx := context.Background()

	t.Run("Unauthenticated", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.CreateRecipe(ctx, "", validInput)
		assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
	})

	t.Run("TitleStrippedToEmpty", func(t *testing.T) {
		f := newFixture()
		in := validInput
		in.Title = "<b></b>"
		_, err := f.svc.CreateRecipe(ctx, "u1", in)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("TooManyImages", func(t *testing.T) {
		f := newFixture()
		in := validInput
		in.DishImageURLs = make([]string, model.MaxImagesPerField+1)
		_, err := f.svc.CreateRecipe(ctx, "u1", in)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("Moderated", func(t *testing.T) {
		f := newFixture()
		in := validInput
		in.Traditions = "we would kill for this"
		_, err := f.svc.CreateRecipe(ctx, "u1", in)
		assert.EqualError(t, err, "content violates community guidelines")
		f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Success", func(t *testing.T) {
		f := newFixture()
		in := validInput
		in.Title = "<i>Caponata</i>"
		f.repo.On("Create", ctx, mock.MatchedBy(func(r *model.Recipe) bool {
			return r.UserID == "u1" && r.Title == "Caponata" && !r.Published &&
				r.PhotoURLs != nil && len(r.PhotoURLs) == 0
		})).Return(nil)

		r, err := f.svc.CreateRecipe(ctx, "u1", in)
		require.NoError(t, err)
		assert.Equal(t, "new-recipe", r.ID)
	})
}

func TestUpdateRecipe(t *testing.T) {
	ctx := context.Background()

	t.Run("NotFoundBeforeForbidden", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetByID", ctx, recipeID).Return(nil, gorm.ErrRecordNotFound)
		_, err := f.svc.UpdateRecipe(ctx, "stranger", recipeID, validInput)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})

	t.Run("Forbidden", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetByID", ctx, recipeID).Return(recipe(true), nil)
		_, err := f.svc.UpdateRecipe(ctx, "stranger", recipeID, validInput)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
		f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("Owner", func(t *testing.T) {
		f := newFixture()
		before := recipe(true)
		stamp := before.UpdatedAt
		f.repo.On("GetByID", ctx, recipeID).Return(before, nil)
		f.repo.On("Update", ctx, mock.Anything).Return(nil)

		r, err := f.svc.UpdateRecipe(ctx, "owner", recipeID, validInput)
		require.NoError(t, err)
		assert.Equal(t, "Sicily", r.Region)
		assert.True(t, r.UpdatedAt.After(stamp))
	})
}

func TestGetRecipeVisibility(t *testing.T) {
	ctx := context.Background()

	t.Run("InvalidID", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.GetRecipe(ctx, "", "not-a-uuid")
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
		f.repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("PublishedRendered", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetByID", ctx, recipeID).Return(recipe(true), nil)

		view, err := f.svc.GetRecipe(ctx, "", recipeID)
		require.NoError(t, err)
		assert.Contains(t, view.HistoryHTML, "<strong>Palermo</strong>")
		assert.Contains(t, view.DirectionsHTML, "<ol>")
		assert.NotContains(t, view.DirectionsHTML, "<script>")
		assert.Empty(t, view.TraditionsHTML)
	})

	t.Run("UnpublishedHiddenFromStrangers", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetByID", ctx, recipeID).Return(recipe(false), nil)
		f.roles.On("HasRole", ctx, "stranger", security.RoleAdmin).Return(false, nil)

		_, err := f.svc.GetRecipe(ctx, "stranger", recipeID)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

		_, err = f.svc.GetRecipe(ctx, "", recipeID)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})

	t.Run("UnpublishedVisibleToOwnerAndAdmin", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetByID", ctx, recipeID).Return(recipe(false), nil)
		f.roles.On("HasRole", ctx, "admin", security.RoleAdmin).Return(true, nil)

		_, err := f.svc.GetRecipe(ctx, "owner", recipeID)
		assert.NoError(t, err)
		_, err = f.svc.GetRecipe(ctx, "admin", recipeID)
		assert.NoError(t, err)
	})
}

func TestListAndSearch(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.repo.On("ListPublished", ctx, "Italy", 10, 10).Return([]model.Recipe{*recipe(true)}, int64(11), nil)
	list, total, err := f.svc.ListRecipes(ctx, " Italy ", 2, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, int64(11), total)

	_, _, err = f.svc.SearchRecipes(ctx, "   ", 1, 10)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	f.search.On("Search", ctx, "eggplant", 0, 10).Return([]model.RecipeSummary{{ID: recipeID, Rank: 0.6}}, int64(1), nil)
	hits, total, err := f.svc.SearchRecipes(ctx, "eggplant", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, recipeID, hits[0].ID)
}

func TestSetPublished(t *testing.T) {
	ctx := context.Background()

	t.Run("NonAdmin", func(t *testing.T) {
		f := newFixture()
		f.roles.On("HasRole", ctx, "u1", security.RoleAdmin).Return(false, nil)
		err := f.svc.SetPublished(ctx, "u1", recipeID, true)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("Missing", func(t *testing.T) {
		f := newFixture()
		f.roles.On("HasRole", ctx, "admin", security.RoleAdmin).Return(true, nil)
		f.repo.On("SetPublished", ctx, recipeID, true).Return(false, nil)
		err := f.svc.SetPublished(ctx, "admin", recipeID, true)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})

	t.Run("Admin", func(t *testing.T) {
		f := newFixture()
		f.roles.On("HasRole", ctx, "admin", security.RoleAdmin).Return(true, nil)
		f.repo.On("SetPublished", ctx, recipeID, false).Return(true, nil)
		assert.NoError(t, f.svc.SetPublished(ctx, "admin", recipeID, false))
	})
}

func TestTranslateRecipe(t *testing.T) {
	ctx := context.Background()

	t.Run("UnsupportedLanguage", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.TranslateRecipe(ctx, "", recipeID, "klingon")
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("StoredAndFresh", func(t *testing.T) {
		f := newFixture()
		r := recipe(true)
		stored := &model.RecipeTranslation{RecipeID: recipeID, Language: "en", Title: "Caponata"}
		stored.UpdatedAt = r.UpdatedAt.Add(time.Hour)
		f.repo.On("GetByID", ctx, recipeID).Return(r, nil)
		f.repo.On("GetTranslation", ctx, recipeID, "en").Return(stored, nil)

		tr, err := f.svc.TranslateRecipe(ctx, "", recipeID, "EN")
		require.NoError(t, err)
		assert.Same(t, stored, tr)
		f.translator.AssertNotCalled(t, "Translate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("StaleRetranslated", func(t *testing.T) {
		f := newFixture()
		r := recipe(true)
		stored := &model.RecipeTranslation{RecipeID: recipeID, Language: "fr"}
		stored.UpdatedAt = r.UpdatedAt.Add(-time.Hour)
		f.repo.On("GetByID", ctx, recipeID).Return(r, nil)
		f.repo.On("GetTranslation", ctx, recipeID, "fr").Return(stored, nil)
		f.translator.On("Translate", ctx, mock.Anything, "fr").Return("traduit", nil)
		f.repo.On("UpsertTranslation", ctx, mock.MatchedBy(func(tr *model.RecipeTranslation) bool {
			return tr.Language == "fr" && tr.Title == "traduit" && tr.RecipeBody == ""
		})).Return(nil)

		tr, err := f.svc.TranslateRecipe(ctx, "", recipeID, "fr")
		require.NoError(t, err)
		assert.Equal(t, "traduit", tr.Directions)
		// title, history, directions; empty recipe body skipped
		f.translator.AssertNumberOfCalls(t, "Translate", 3)
	})

	t.Run("TranslatorDown", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetByID", ctx, recipeID).Return(recipe(true), nil)
		f.repo.On("GetTranslation", ctx, recipeID, "de").Return(nil, gorm.ErrRecordNotFound)
		f.translator.On("Translate", ctx, mock.Anything, "de").Return("", errors.New("throttled"))

		_, err := f.svc.TranslateRecipe(ctx, "", recipeID, "de")
		assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
		f.repo.AssertNotCalled(t, "UpsertTranslation", mock.Anything, mock.Anything)
	})
}

func TestCreateComment(t *testing.T) {
	ctx := context.Background()

	t.Run("TooLong", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.CreateComment(ctx, CreateCommentInput{RecipeID: recipeID, AuthorID: "u1", Content: strings.Repeat("字", model.MaxCommentLength+1)})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("ParentOnOtherRecipe", func(t *testing.T) {
		f := newFixture()
		parent := commentID
		f.repo.On("GetByID", ctx, recipeID).Return(recipe(true), nil)
		f.repo.On("GetComment", ctx, commentID).Return(&model.RecipeComment{
			BaseModel: basemodel.BaseModel{ID: commentID}, RecipeID: otherID,
		}, nil)

		_, err := f.svc.CreateComment(ctx, CreateCommentInput{RecipeID: recipeID, ParentID: &parent, AuthorID: "u1", Content: "yum"})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("MissingParent", func(t *testing.T) {
		f := newFixture()
		parent := "nope"
		f.repo.On("GetByID", ctx, recipeID).Return(recipe(true), nil)

		_, err := f.svc.CreateComment(ctx, CreateCommentInput{RecipeID: recipeID, ParentID: &parent, AuthorID: "u1", Content: "yum"})
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})

	t.Run("Reply", func(t *testing.T) {
		f := newFixture()
		parent := commentID
		f.repo.On("GetByID", ctx, recipeID).Return(recipe(true), nil)
		f.repo.On("GetComment", ctx, commentID).Return(&model.RecipeComment{
			BaseModel: basemodel.BaseModel{ID: commentID}, RecipeID: recipeID,
		}, nil)
		f.names.On("DisplayName", ctx, "u1").Return("", errors.New("redis down"))
		f.repo.On("CreateComment", ctx, mock.Anything).Return(nil)

		c, err := f.svc.CreateComment(ctx, CreateCommentInput{RecipeID: recipeID, ParentID: &parent, AuthorID: "u1", Content: "yum"})
		require.NoError(t, err)
		assert.Equal(t, commentID, *c.ParentID)
		assert.Equal(t, model.AnonymousAuthor, c.AuthorName)
	})
}

func TestUpdateDeleteComment(t *testing.T) {
	ctx := context.Background()
	owned := func() *model.RecipeComment {
		return &model.RecipeComment{BaseModel: basemodel.BaseModel{ID: commentID}, RecipeID: recipeID, UserID: "u1", Content: "old"}
	}

	t.Run("UpdateForbidden", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetComment", ctx, commentID).Return(owned(), nil)
		_, err := f.svc.UpdateComment(ctx, "u2", commentID, "new")
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("UpdateOwner", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetComment", ctx, commentID).Return(owned(), nil)
		f.repo.On("UpdateCommentContent", ctx, mock.Anything).Return(nil)
		c, err := f.svc.UpdateComment(ctx, "u1", commentID, "new")
		require.NoError(t, err)
		assert.Equal(t, "new", c.Content)
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetComment", ctx, commentID).Return(nil, gorm.ErrRecordNotFound)
		err := f.svc.DeleteComment(ctx, "u1", commentID)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})

	t.Run("DeleteRacedWithAncestor", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetComment", ctx, commentID).Return(owned(), nil)
		f.repo.On("DeleteComment", ctx, commentID).Return(int64(0), nil)
		err := f.svc.DeleteComment(ctx, "u1", commentID)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})
}
