package mysql

import (
	"testing"

	"GroupHub/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateGroupSeedsCreatorMembership(t *testing.T) {
	db := openTestDB(t)
	repo := &GroupRepository{DB: db}

	g, err := repo.Create(t.Context(), &model.Group{
		Name:       "hiking",
		CreatorID:  42,
		IsPublic:   true,
		IsActive:   true,
		MaxMembers: 10,
	})
	require.NoError(t, err)
	require.NotZero(t, g.ID)

	memberRepo := &GroupMemberRepository{DB: db}
	status, found, err := memberRepo.Membership(t.Context(), g.ID, 42)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, model.StatusActive, status)

	isAdmin, err := memberRepo.IsAdmin(t.Context(), g.ID, 42)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	requireCounterConsistent(t, db, g.ID)
}

func TestCreateGroupDuplicateName(t *testing.T) {
	db := openTestDB(t)
	repo := &GroupRepository{DB: db}

	_, err := repo.Create(t.Context(), &model.Group{Name: "dup", CreatorID: 1, IsActive: true, MaxMembers: 10})
	require.NoError(t, err)

	_, err = repo.Create(t.Context(), &model.Group{Name: "dup", CreatorID: 2, IsActive: true, MaxMembers: 10})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestSetActiveTogglesJoinability(t *testing.T) {
	db := openTestDB(t)
	repo := &GroupRepository{DB: db}
	memberRepo := &GroupMemberRepository{DB: db}

	g, err := repo.Create(t.Context(), &model.Group{Name: "toggled", CreatorID: 1, IsActive: true, MaxMembers: 10})
	require.NoError(t, err)

	require.NoError(t, repo.SetActive(t.Context(), g.ID, false))
	_, err = memberRepo.Join(t.Context(), g.ID, 2)
	assert.ErrorIs(t, err, ErrGroupInactive)
}

func TestDeleteByIdIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	repo := &GroupRepository{DB: db}

	g, err := repo.Create(t.Context(), &model.Group{Name: "gone", CreatorID: 1, IsActive: true, MaxMembers: 10})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteById(t.Context(), g.ID))
	require.NoError(t, repo.DeleteById(t.Context(), g.ID))

	var members int64
	require.NoError(t, db.Model(&model.GroupMember{}).Where("group_id = ?", g.ID).Count(&members).Error)
	assert.Zero(t, members)
}

func TestReconcilerRepairsDrift(t *testing.T) {
	db := openTestDB(t)
	memberRepo := &GroupMemberRepository{DB: db}
	recRepo := &MemberCountReconcilerRepo{DB: db}
	g := seedGroup(t, db, true, true, 10)

	for uid := uint64(1); uid <= 3; uid++ {
		_, err := memberRepo.Join(t.Context(), g.ID, uid)
		require.NoError(t, err)
	}

	// 人为制造漂移
	require.NoError(t, db.Model(&model.Group{}).Where("id = ?", g.ID).
		UpdateColumn("member_count", 99).Error)

	groups, next, err := recRepo.ReconcileList(t.Context(), 100, 0)
	require.NoError(t, err)
	require.NotEmpty(t, groups)
	assert.Equal(t, groups[len(groups)-1].ID, next)

	real, err := recRepo.RealActiveCount(t.Context(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), real)

	require.NoError(t, recRepo.FixCount(t.Context(), g.ID, real))
	requireCounterConsistent(t, db, g.ID)
}
