package service

import (
	"testing"

	"GroupHub/internal/model"
	"GroupHub/internal/repository/mysql"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinGroupRequiresIdentity(t *testing.T) {
	db := openTestDB(t)
	svc := NewMemberService(db, nil, nil)

	_, err := svc.JoinGroup(t.Context(), 0, 1)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	err = svc.LeaveGroup(t.Context(), 0, 1)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestJoinGroupZeroIDIsNotFound(t *testing.T) {
	db := openTestDB(t)
	svc := NewMemberService(db, nil, nil)

	_, err := svc.JoinGroup(t.Context(), 1, 0)
	assert.ErrorIs(t, err, mysql.ErrGroupNotFound)
}

func TestJoinLeaveRoundTrip(t *testing.T) {
	db := openTestDB(t)
	groups := NewGroupService(db, nil, nil)
	members := NewMemberService(db, nil, nil)

	g, err := groups.CreateGroup(t.Context(), 1, "book club", "weekly reads", true, 5)
	require.NoError(t, err)

	status, err := members.JoinGroup(t.Context(), 2, g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, status)

	require.NoError(t, members.LeaveGroup(t.Context(), 2, g.ID))
	err = members.LeaveGroup(t.Context(), 2, g.ID)
	assert.ErrorIs(t, err, mysql.ErrNotMember)
}

func TestApprovalFlowRequiresAdmin(t *testing.T) {
	db := openTestDB(t)
	groups := NewGroupService(db, nil, nil)
	members := NewMemberService(db, nil, nil)

	g, err := groups.CreateGroup(t.Context(), 1, "camera club", "", false, 5)
	require.NoError(t, err)

	status, err := members.JoinGroup(t.Context(), 2, g.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusPending, status)

	// 普通成员无权审批
	err = members.ApproveRequest(t.Context(), 2, g.ID, 2)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	// 创建者是管理员
	require.NoError(t, members.ApproveRequest(t.Context(), 1, g.ID, 2))

	got, err := members.MembershipStatus(t.Context(), 2, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "active", got)
}

func TestListRequestsAdminOnly(t *testing.T) {
	db := openTestDB(t)
	groups := NewGroupService(db, nil, nil)
	members := NewMemberService(db, nil, nil)

	g, err := groups.CreateGroup(t.Context(), 1, "chess", "", false, 10)
	require.NoError(t, err)

	for uid := uint64(2); uid <= 4; uid++ {
		_, err = members.JoinGroup(t.Context(), uid, g.ID)
		require.NoError(t, err)
	}

	rows, _, err := members.ListRequests(t.Context(), 1, g.ID, 0, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	_, _, err = members.ListRequests(t.Context(), 2, g.ID, 0, 10)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestBanMemberGuards(t *testing.T) {
	db := openTestDB(t)
	groups := NewGroupService(db, nil, nil)
	members := NewMemberService(db, nil, nil)

	g, err := groups.CreateGroup(t.Context(), 1, "forum", "", true, 10)
	require.NoError(t, err)

	_, err = members.JoinGroup(t.Context(), 2, g.ID)
	require.NoError(t, err)

	// 不能封禁自己
	err = members.BanMember(t.Context(), 1, g.ID, 1)
	require.Error(t, err)

	require.NoError(t, members.BanMember(t.Context(), 1, g.ID, 2))
	got, err := members.MembershipStatus(t.Context(), 2, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "banned", got)
}

func TestMembershipStatusNone(t *testing.T) {
	db := openTestDB(t)
	groups := NewGroupService(db, nil, nil)
	members := NewMemberService(db, nil, nil)

	g, err := groups.CreateGroup(t.Context(), 1, "empty", "", true, 10)
	require.NoError(t, err)

	got, err := members.MembershipStatus(t.Context(), 99, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "none", got)
}
