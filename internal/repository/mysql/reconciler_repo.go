package mysql

import (
	"context"

	"GroupHub/internal/model"

	"gorm.io/gorm"
)

type MemberCountReconcilerRepo struct {
	DB *gorm.DB
}

// GroupCount 对账批次里的一行：组id和它缓存的成员数
type GroupCount struct {
	ID          uint64
	MemberCount int64
}

// ReconcileList pages through groups by id, returning the next cursor.
func (r *MemberCountReconcilerRepo) ReconcileList(ctx context.Context, batchSize int, lastID uint64) ([]GroupCount, uint64, error) {
	var list []GroupCount
	if err := r.DB.WithContext(ctx).Model(&model.Group{}).
		Select("id", "member_count").
		Where("id > ?", lastID).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, lastID, err
	}
	if len(list) == 0 {
		return nil, lastID, nil
	}
	return list, list[len(list)-1].ID, nil
}

// RealActiveCount derives the true count from the membership rows.
func (r *MemberCountReconcilerRepo) RealActiveCount(ctx context.Context, groupID uint64) (int64, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&model.GroupMember{}).
		Where("group_id = ? AND status = ?", groupID, model.StatusActive).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// FixCount overwrites a drifted cached counter with the derived value.
func (r *MemberCountReconcilerRepo) FixCount(ctx context.Context, groupID uint64, real int64) error {
	return r.DB.WithContext(ctx).Model(&model.Group{}).Where("id = ?", groupID).
		UpdateColumn("member_count", real).Error
}
