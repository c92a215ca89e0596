package mysql

import (
	"context"

	"GroupHub/internal/model"

	"gorm.io/gorm"
)

type GroupRepository struct {
	DB *gorm.DB
}

// Create inserts the group and makes the creator an active admin member in the
// same transaction, so the counter is seeded consistently with the rows.
func (r *GroupRepository) Create(ctx context.Context, g *model.Group) (*model.Group, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(g).Error; err != nil {
			return err
		}
		if err := tx.Create(&model.GroupMember{
			GroupID: g.ID,
			UserID:  g.CreatorID,
			Status:  model.StatusActive,
			Role:    1,
		}).Error; err != nil {
			return err
		}
		if err := grabSeat(tx, g.ID); err != nil {
			return err
		}
		return insertOutbox(tx, "join", g.ID, g.CreatorID, model.StatusActive)
	})
	return g, err
}

func (r *GroupRepository) FindByID(ctx context.Context, id uint64) (*model.Group, error) {
	var g model.Group
	err := r.DB.WithContext(ctx).First(&g, id).Error
	return &g, err
}

func (r *GroupRepository) FindByName(ctx context.Context, name string) (*model.Group, error) {
	var g model.Group
	err := r.DB.WithContext(ctx).Where("name = ?", name).First(&g).Error
	return &g, err
}

func (r *GroupRepository) List(ctx context.Context, offset, limit int) ([]model.Group, error) {
	var list []model.Group
	err := r.DB.WithContext(ctx).Order("id desc").Offset(offset).Limit(limit).Find(&list).Error
	return list, err
}

// SetActive soft-enables or soft-disables the group. Membership rows are kept.
func (r *GroupRepository) SetActive(ctx context.Context, id uint64, active bool) error {
	return r.DB.WithContext(ctx).Model(&model.Group{}).
		Where("id = ?", id).
		Update("is_active", active).Error
}

func (r *GroupRepository) DeleteById(ctx context.Context, id uint64) error {
	// 幂等硬删除：RowsAffected == 0 也视为成功
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", id).Delete(&model.GroupMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Group{}, id).Error
	})
}
