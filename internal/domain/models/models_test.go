package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRolePredicates(t *testing.T) {
	testCases := []struct {
		name      string
		user      *User
		admin     bool
		moderator bool
		plain     bool
	}{
		{"anonymous", AnonymousUser, false, false, false},
		{"nil", nil, false, false, false},
		{"user", &User{ID: 1, Role: RoleUser}, false, false, true},
		{"moderator", &User{ID: 2, Role: RoleModerator}, false, true, false},
		{"admin", &User{ID: 3, Role: RoleAdmin}, true, false, false},
		{"staff with user role", &User{ID: 4, Role: RoleUser, IsStaff: true}, true, false, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.admin, tc.user.IsAdmin())
			assert.Equal(t, tc.moderator, tc.user.IsModerator())
			assert.Equal(t, tc.plain, tc.user.IsUser())
		})
	}
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleModerator.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("superuser").Valid())
	assert.False(t, Role("").Valid())
}

func TestAverageScore(t *testing.T) {
	assert.Nil(t, AverageScore(nil))
	avg := AverageScore([]int{8, 10})
	require.NotNil(t, avg)
	assert.Equal(t, 9.0, *avg)
	avg = AverageScore([]int{1, 2})
	require.NotNil(t, avg)
	assert.Equal(t, 1.5, *avg)
}
