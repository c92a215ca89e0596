package service

import (
	"context"
	"errors"
	"testing"

	"GroupHub/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxDrainMarksSentAndFailed(t *testing.T) {
	db := openTestDB(t)
	groups := NewGroupService(db, nil, nil)
	members := NewMemberService(db, nil, nil)

	g, err := groups.CreateGroup(t.Context(), 1, "events", "", true, 10)
	require.NoError(t, err)
	_, err = members.JoinGroup(t.Context(), 2, g.ID)
	require.NoError(t, err)

	var sent []string
	relayer := NewOutboxRelayer(db, func(ctx context.Context, ob *model.MemberOutbox) error {
		if ob.EventType == "join" && ob.UserID == 2 {
			return errors.New("broker down")
		}
		sent = append(sent, ob.EventType)
		return nil
	})
	relayer.drainOnce(t.Context())

	var rows []model.MemberOutbox
	require.NoError(t, db.Order("id ASC").Find(&rows).Error)
	require.Len(t, rows, 2)

	// 创建者的join送达，第二条失败进入重试
	assert.Equal(t, int8(1), rows[0].Status)
	assert.Equal(t, int8(2), rows[1].Status)
	assert.Equal(t, 1, rows[1].Retry)
	assert.Equal(t, []string{"join"}, sent)
}

func TestReconcilerFixesDriftAndWraps(t *testing.T) {
	db := openTestDB(t)
	groups := NewGroupService(db, nil, nil)

	g, err := groups.CreateGroup(t.Context(), 1, "drift", "", true, 10)
	require.NoError(t, err)

	require.NoError(t, db.Model(&model.Group{}).Where("id = ?", g.ID).
		UpdateColumn("member_count", 7).Error)

	rec := NewMemberCountReconciler(db)
	rec.reconcileOnce(t.Context())

	var fresh model.Group
	require.NoError(t, db.First(&fresh, g.ID).Error)
	assert.Equal(t, int64(1), fresh.MemberCount)

	// 扫到末尾后游标归零，下一轮从头开始
	rec.reconcileOnce(t.Context())
	assert.Zero(t, rec.lastID)
}
