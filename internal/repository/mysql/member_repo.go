package mysql

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"GroupHub/internal/model"

	"gorm.io/gorm"
)

var (
	ErrGroupNotFound = errors.New("group not found")
	ErrGroupInactive = errors.New("group is not active")
	ErrGroupFull     = errors.New("group is full")
	ErrAlreadyMember = errors.New("already a member of this group")
	ErrJoinPending   = errors.New("join request already pending")
	ErrBanned        = errors.New("banned from this group")
	ErrNotMember     = errors.New("not a member of this group")
	ErrNotPending    = errors.New("no pending join request")
)

type GroupMemberRepository struct {
	DB *gorm.DB
}

// Join creates the membership row for (groupID, userID) and returns the status
// it was assigned: active for public groups, pending for private ones.
//
// The whole read-decide-write sequence runs in one transaction. The early
// MemberCount check only fails fast for the caller; the authoritative capacity
// guard is the conditional increment in grabSeat, so two concurrent joins can
// never both take the last seat.
func (r *GroupMemberRepository) Join(ctx context.Context, groupID, userID uint64) (model.MemberStatus, error) {
	var assigned model.MemberStatus
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g model.Group
		if err := tx.First(&g, groupID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGroupNotFound
			}
			return err
		}
		if !g.IsActive {
			return ErrGroupInactive
		}
		if g.MemberCount >= g.MaxMembers {
			return ErrGroupFull
		}

		var m model.GroupMember
		err := tx.Where("group_id = ? AND user_id = ?", groupID, userID).First(&m).Error
		if err == nil {
			return membershipConflict(m.Status)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		assigned = model.StatusPending
		if g.IsPublic {
			assigned = model.StatusActive
		}
		if err = tx.Create(&model.GroupMember{
			GroupID: groupID,
			UserID:  userID,
			Status:  assigned,
		}).Error; err != nil {
			// 并发双重join：唯一键冲突视为已加入
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyMember
			}
			return err
		}

		if assigned.Counted() {
			if err = grabSeat(tx, groupID); err != nil {
				return err
			}
		}
		return insertOutbox(tx, "join", groupID, userID, assigned)
	})
	if err != nil {
		return 0, err
	}
	return assigned, nil
}

// Leave deletes the membership row and releases its seat when the row was
// counted. A missing row is reported as ErrNotMember, never silently ignored.
func (r *GroupMemberRepository) Leave(ctx context.Context, groupID, userID uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m model.GroupMember
		if err := tx.Where("group_id = ? AND user_id = ?", groupID, userID).First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotMember
			}
			return err
		}

		// 条件删除，防止读后状态被并发改写
		res := tx.Where("id = ? AND status = ?", m.ID, m.Status).Delete(&model.GroupMember{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotMember
		}

		if m.Status.Counted() {
			if err := releaseSeat(tx, groupID); err != nil {
				return err
			}
		}
		return insertOutbox(tx, "leave", groupID, userID, m.Status)
	})
}

// Approve flips a pending request to active. Capacity is re-validated at
// approval time: when the group is already full the transaction rolls back
// with ErrGroupFull and the request stays pending.
func (r *GroupMemberRepository) Approve(ctx context.Context, groupID, userID uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.GroupMember{}).
			Where("group_id = ? AND user_id = ? AND status = ?", groupID, userID, model.StatusPending).
			Update("status", model.StatusActive)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotPending
		}
		if err := grabSeat(tx, groupID); err != nil {
			return err
		}
		return insertOutbox(tx, "approve", groupID, userID, model.StatusActive)
	})
}

// Reject removes a pending request without touching the counter.
func (r *GroupMemberRepository) Reject(ctx context.Context, groupID, userID uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("group_id = ? AND user_id = ? AND status = ?", groupID, userID, model.StatusPending).
			Delete(&model.GroupMember{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotPending
		}
		return insertOutbox(tx, "reject", groupID, userID, model.StatusPending)
	})
}

// Ban marks the membership banned, creating the row when the user never
// joined. A previously active member gives their seat back. Banning an
// already banned user is idempotent.
func (r *GroupMemberRepository) Ban(ctx context.Context, groupID, userID uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m model.GroupMember
		err := tx.Where("group_id = ? AND user_id = ?", groupID, userID).First(&m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err = tx.Create(&model.GroupMember{
				GroupID: groupID,
				UserID:  userID,
				Status:  model.StatusBanned,
			}).Error; err != nil {
				return err
			}
			return insertOutbox(tx, "ban", groupID, userID, model.StatusBanned)
		}
		if err != nil {
			return err
		}
		if m.Status == model.StatusBanned {
			return nil
		}

		res := tx.Model(&model.GroupMember{}).
			Where("id = ? AND status = ?", m.ID, m.Status).
			Update("status", model.StatusBanned)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if m.Status.Counted() {
			if err = releaseSeat(tx, groupID); err != nil {
				return err
			}
		}
		return insertOutbox(tx, "ban", groupID, userID, model.StatusBanned)
	})
}

// Membership returns the current status for (groupID, userID). found=false
// means no row exists, i.e. the implicit "none" state.
func (r *GroupMemberRepository) Membership(ctx context.Context, groupID, userID uint64) (model.MemberStatus, bool, error) {
	var m model.GroupMember
	err := r.DB.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return m.Status, true, nil
}

// IsAdmin reports whether the user holds an active admin membership.
func (r *GroupMemberRepository) IsAdmin(ctx context.Context, groupID, userID uint64) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.GroupMember{}).
		Where("group_id = ? AND user_id = ? AND status = ? AND role >= 1", groupID, userID, model.StatusActive).
		Count(&n).Error
	return n > 0, err
}

// ListMembers returns active members, newest first, with an id cursor.
func (r *GroupMemberRepository) ListMembers(ctx context.Context, groupID uint64, cursor uint64, limit int) ([]model.GroupMember, uint64, error) {
	return r.listByStatus(ctx, groupID, model.StatusActive, cursor, limit)
}

// ListPending returns the pending join requests for the approval queue.
func (r *GroupMemberRepository) ListPending(ctx context.Context, groupID uint64, cursor uint64, limit int) ([]model.GroupMember, uint64, error) {
	return r.listByStatus(ctx, groupID, model.StatusPending, cursor, limit)
}

func (r *GroupMemberRepository) listByStatus(ctx context.Context, groupID uint64, status model.MemberStatus, cursor uint64, limit int) ([]model.GroupMember, uint64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := r.DB.WithContext(ctx).Model(&model.GroupMember{}).
		Where("group_id = ? AND status = ?", groupID, status)
	if cursor > 0 {
		q = q.Where("id < ?", cursor)
	}
	var rows []model.GroupMember
	// limit+1 探测是否还有下一页
	if err := q.Order("id DESC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	var next uint64
	if len(rows) > limit {
		next = rows[limit-1].ID
		rows = rows[:limit]
	}
	return rows, next, nil
}

// CountActive derives the real active membership count from the rows.
func (r *GroupMemberRepository) CountActive(ctx context.Context, groupID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.GroupMember{}).
		Where("group_id = ? AND status = ?", groupID, model.StatusActive).
		Count(&n).Error
	return n, err
}

// grabSeat is the authoritative capacity guard: the increment only lands while
// member_count < max_members, atomically from the view of concurrent callers.
func grabSeat(tx *gorm.DB, groupID uint64) error {
	res := tx.Model(&model.Group{}).
		Where("id = ? AND member_count < max_members", groupID).
		UpdateColumn("member_count", gorm.Expr("member_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrGroupFull
	}
	return nil
}

// releaseSeat decrements the cached counter, floored at zero.
func releaseSeat(tx *gorm.DB, groupID uint64) error {
	return tx.Model(&model.Group{}).
		Where("id = ?", groupID).
		UpdateColumn("member_count", gorm.Expr("CASE WHEN member_count > 0 THEN member_count - 1 ELSE 0 END")).Error
}

func membershipConflict(s model.MemberStatus) error {
	switch s {
	case model.StatusPending:
		return ErrJoinPending
	case model.StatusBanned:
		return ErrBanned
	default:
		return ErrAlreadyMember
	}
}

// insertOutbox records the event in the same transaction as the mutation.
func insertOutbox(tx *gorm.DB, event string, groupID, userID uint64, status model.MemberStatus) error {
	payload, _ := json.Marshal(map[string]any{
		"event_time": time.Now().UTC().Format(time.RFC3339Nano),
		"group_id":   groupID,
		"user_id":    userID,
		"status":     status.String(),
	})
	ob := &model.MemberOutbox{
		EventType: event,
		GroupID:   groupID,
		UserID:    userID,
		Payload:   string(payload),
		Status:    0,
	}
	return tx.Create(ob).Error
}
