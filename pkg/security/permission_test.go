package security

import (
	"context"
	"errors"
	"testing"

	"recipe_community/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type ownedThing struct{ owner string }

func (o ownedThing) GetOwnerID() string { return o.owner }

type MockRoleChecker struct {
	mock.Mock
}

func (m *MockRoleChecker) HasRole(ctx context.Context, userID string, role Role) (bool, error) {
	args := m.Called(ctx, userID, role)
	return args.Bool(0), args.Error(1)
}

func TestCheckResourceOwnership(t *testing.T) {
	assert.True(t, CheckResourceOwnership("u1", ownedThing{"u1"}))
	assert.False(t, CheckResourceOwnership("u2", ownedThing{"u1"}))
	assert.False(t, CheckResourceOwnership("", ownedThing{""}))
}

func TestAuthorize(t *testing.T) {
	t.Run("Owner", func(t *testing.T) {
		assert.NoError(t, Authorize("u1", ownedThing{"u1"}))
	})

	t.Run("Anonymous", func(t *testing.T) {
		err := Authorize("", ownedThing{"u1"})
		assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
	})

	t.Run("NotOwner", func(t *testing.T) {
		err := Authorize("u2", ownedThing{"u1"})
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})
}

func TestAuthorizeOwnerOrRole(t *testing.T) {
	ctx := context.Background()

	t.Run("OwnerSkipsRoleCheck", func(t *testing.T) {
		checker := new(MockRoleChecker)
		assert.NoError(t, AuthorizeOwnerOrRole(ctx, checker, "u1", ownedThing{"u1"}, RoleAdmin))
		checker.AssertNotCalled(t, "HasRole", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("AdminAllowed", func(t *testing.T) {
		checker := new(MockRoleChecker)
		checker.On("HasRole", ctx, "admin1", RoleAdmin).Return(true, nil)
		assert.NoError(t, AuthorizeOwnerOrRole(ctx, checker, "admin1", ownedThing{"u1"}, RoleAdmin))
	})

	t.Run("NeitherOwnerNorAdmin", func(t *testing.T) {
		checker := new(MockRoleChecker)
		checker.On("HasRole", ctx, "u2", RoleAdmin).Return(false, nil)
		err := AuthorizeOwnerOrRole(ctx, checker, "u2", ownedThing{"u1"}, RoleAdmin)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("CheckerFailure", func(t *testing.T) {
		checker := new(MockRoleChecker)
		checker.On("HasRole", ctx, "u2", RoleAdmin).Return(false, errors.New("db down"))
		err := AuthorizeOwnerOrRole(ctx, checker, "u2", ownedThing{"u1"}, RoleAdmin)
		assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	})
}

func TestRequireRole(t *testing.T) {
	ctx := context.Background()
	checker := new(MockRoleChecker)
	checker.On("HasRole", ctx, "a", RoleAdmin).Return(true, nil)
	checker.On("HasRole", ctx, "b", RoleAdmin).Return(false, nil)

	assert.NoError(t, RequireRole(ctx, checker, "a", RoleAdmin))
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(RequireRole(ctx, checker, "b", RoleAdmin)))
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(RequireRole(ctx, checker, "", RoleAdmin)))
}
