package service

import (
	"testing"

	"GroupHub/internal/repository/mysql"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGroupDefaultsAndValidation(t *testing.T) {
	db := openTestDB(t)
	svc := NewGroupService(db, nil, nil)

	_, err := svc.CreateGroup(t.Context(), 0, "x", "", true, 10)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.CreateGroup(t.Context(), 1, "", "", true, 10)
	require.Error(t, err)

	g, err := svc.CreateGroup(t.Context(), 1, "defaults", "", true, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(defaultMaxMembers), g.MaxMembers)
	assert.True(t, g.IsActive)
}

func TestCreateGroupNameTaken(t *testing.T) {
	db := openTestDB(t)
	svc := NewGroupService(db, nil, nil)

	_, err := svc.CreateGroup(t.Context(), 1, "unique", "", true, 10)
	require.NoError(t, err)

	_, err = svc.CreateGroup(t.Context(), 2, "unique", "", true, 10)
	assert.ErrorIs(t, err, ErrNameTaken)
}

func TestMemberCountWithoutCacheHitsStore(t *testing.T) {
	db := openTestDB(t)
	groups := NewGroupService(db, nil, nil)
	members := NewMemberService(db, nil, nil)

	g, err := groups.CreateGroup(t.Context(), 1, "counted", "", true, 10)
	require.NoError(t, err)
	_, err = members.JoinGroup(t.Context(), 2, g.ID)
	require.NoError(t, err)

	n, err := groups.MemberCount(t.Context(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestDeactivateGroupPermissions(t *testing.T) {
	db := openTestDB(t)
	groups := NewGroupService(db, nil, nil)
	members := NewMemberService(db, nil, nil)

	g, err := groups.CreateGroup(t.Context(), 1, "winding down", "", true, 10)
	require.NoError(t, err)
	_, err = members.JoinGroup(t.Context(), 2, g.ID)
	require.NoError(t, err)

	err = groups.DeactivateGroup(t.Context(), 2, g.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	require.NoError(t, groups.DeactivateGroup(t.Context(), 1, g.ID))
	_, err = members.JoinGroup(t.Context(), 3, g.ID)
	assert.ErrorIs(t, err, mysql.ErrGroupInactive)
}

func TestListGroupsPagingBounds(t *testing.T) {
	db := openTestDB(t)
	svc := NewGroupService(db, nil, nil)

	for i := 0; i < 5; i++ {
		_, err := svc.CreateGroup(t.Context(), 1, "g"+string(rune('a'+i)), "", true, 10)
		require.NoError(t, err)
	}

	list, err := svc.ListGroups(t.Context(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 5)

	list, err = svc.ListGroups(t.Context(), 2, 3)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
