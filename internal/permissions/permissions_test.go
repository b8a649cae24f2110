package permissions

import (
	"net/http"
	"testing"

	"yamdb/proj/internal/domain/errs"
	"yamdb/proj/internal/domain/models"

	"github.com/stretchr/testify/assert"
)

var (
	anon      = models.AnonymousUser
	user      = &models.User{ID: 1, Username: "user", Role: models.RoleUser}
	other     = &models.User{ID: 2, Username: "other", Role: models.RoleUser}
	moderator = &models.User{ID: 3, Username: "mod", Role: models.RoleModerator}
	admin     = &models.User{ID: 4, Username: "admin", Role: models.RoleAdmin}
	staff     = &models.User{ID: 5, Username: "staff", Role: models.RoleUser, IsStaff: true}
)

func TestActionFromMethod(t *testing.T) {
	assert.Equal(t, ActionRead, ActionFromMethod(http.MethodGet))
	assert.Equal(t, ActionRead, ActionFromMethod(http.MethodHead))
	assert.Equal(t, ActionRead, ActionFromMethod(http.MethodOptions))
	assert.Equal(t, ActionCreate, ActionFromMethod(http.MethodPost))
	assert.Equal(t, ActionUpdate, ActionFromMethod(http.MethodPatch))
	assert.Equal(t, ActionUpdate, ActionFromMethod(http.MethodPut))
	assert.Equal(t, ActionDelete, ActionFromMethod(http.MethodDelete))
}

func TestCatalogIsAdminOrReadOnly(t *testing.T) {
	e := New()
	for _, kind := range []Kind{KindCategory, KindGenre, KindTitle} {
		res := Resource{Kind: kind}
		for _, actor := range []*models.User{anon, user, moderator, admin} {
			assert.True(t, e.Permit(actor, ActionRead, res), "%s read by %s", kind, actor.Username)
		}
		for _, action := range []Action{ActionCreate, ActionUpdate, ActionDelete} {
			assert.False(t, e.Permit(anon, action, res))
			assert.False(t, e.Permit(user, action, res))
			assert.False(t, e.Permit(moderator, action, res))
			assert.True(t, e.Permit(admin, action, res))
			assert.True(t, e.Permit(staff, action, res))
		}
	}
}

func TestReviewsAndComments(t *testing.T) {
	e := New()
	for _, kind := range []Kind{KindReview, KindComment} {
		collection := Resource{Kind: kind}
		own := Resource{Kind: kind, AuthorID: user.ID}

		assert.True(t, e.Permit(anon, ActionRead, own))
		assert.False(t, e.Permit(anon, ActionCreate, collection))
		assert.True(t, e.Permit(user, ActionCreate, collection))

		assert.True(t, e.Permit(user, ActionUpdate, own))
		assert.True(t, e.Permit(user, ActionDelete, own))
		assert.False(t, e.Permit(other, ActionUpdate, own))
		assert.False(t, e.Permit(other, ActionDelete, own))
		assert.False(t, e.Permit(anon, ActionUpdate, own))

		assert.True(t, e.Permit(moderator, ActionUpdate, own))
		assert.True(t, e.Permit(moderator, ActionDelete, own))
		assert.True(t, e.Permit(admin, ActionUpdate, own))
		assert.True(t, e.Permit(staff, ActionDelete, own))
	}
}

func TestUserManagement(t *testing.T) {
	e := New()
	users := Resource{Kind: KindUsers}
	for _, action := range []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete} {
		assert.False(t, e.Permit(anon, action, users))
		assert.False(t, e.Permit(user, action, users))
		assert.False(t, e.Permit(moderator, action, users))
		assert.True(t, e.Permit(admin, action, users))
	}

	me := Resource{Kind: KindMe}
	assert.False(t, e.Permit(anon, ActionRead, me))
	assert.True(t, e.Permit(user, ActionRead, me))
	assert.True(t, e.Permit(moderator, ActionUpdate, me))
	assert.False(t, e.Permit(user, ActionDelete, me))
}

func TestCapabilities(t *testing.T) {
	assert.Equal(t, CapRead, Capabilities(anon))
	assert.True(t, Capabilities(user).Has(CapWriteOwn))
	assert.False(t, Capabilities(user).Has(CapModerate))
	assert.True(t, Capabilities(moderator).Has(CapModerate))
	assert.False(t, Capabilities(moderator).Has(CapWriteAny))
	assert.True(t, Capabilities(staff).Has(CapWriteAny|CapModerate))
}

func TestCheck(t *testing.T) {
	e := New()
	categories := Resource{Kind: KindCategory}
	assert.NoError(t, e.Check(anon, ActionRead, categories))
	assert.ErrorIs(t, e.Check(anon, ActionCreate, categories), errs.ErrUnauthenticated)
	assert.ErrorIs(t, e.Check(user, ActionCreate, categories), errs.ErrForbidden)
	assert.NoError(t, e.Check(admin, ActionCreate, categories))
}
