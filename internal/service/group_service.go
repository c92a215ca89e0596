package service

import (
	"context"
	"errors"
	"time"

	"GroupHub/internal/model"
	"GroupHub/internal/pkg"
	"GroupHub/internal/repository/mysql"
	"GroupHub/internal/repository/redis"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrNameTaken = errors.New("group name already taken")

const defaultMaxMembers = 100

type GroupService struct {
	repo       *mysql.GroupRepository
	memberRepo *mysql.GroupMemberRepository
	cache      *redis.GroupCacheRepository
	lock       *redis.DistLock
}

// NewGroupService wires group management. cache/lock may be nil; member count
// reads then always go to the datastore.
func NewGroupService(db *gorm.DB, cache *redis.GroupCacheRepository, lock *redis.DistLock) *GroupService {
	return &GroupService{
		repo:       &mysql.GroupRepository{DB: db},
		memberRepo: &mysql.GroupMemberRepository{DB: db},
		cache:      cache,
		lock:       lock,
	}
}

// CreateGroup creates the group with the caller as active admin member.
func (s *GroupService) CreateGroup(ctx context.Context, userID uint64, name, desc string, isPublic bool, maxMembers int64) (*model.Group, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	if name == "" {
		return nil, errors.New("group name required")
	}
	if maxMembers <= 0 {
		maxMembers = defaultMaxMembers
	}

	group := &model.Group{
		Name:        name,
		Description: desc,
		CreatorID:   userID,
		IsPublic:    isPublic,
		IsActive:    true,
		MaxMembers:  maxMembers,
	}
	if _, err := s.repo.Create(ctx, group); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrNameTaken
		}
		pkg.Log.Error("group create failed", zap.String("name", name), zap.Error(err))
		return nil, ErrStoreFailure
	}
	return group, nil
}

func (s *GroupService) GetGroup(ctx context.Context, groupID uint64) (*model.Group, error) {
	group, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, mysql.ErrGroupNotFound
		}
		pkg.Log.Error("group lookup failed", zap.Uint64("group_id", groupID), zap.Error(err))
		return nil, ErrStoreFailure
	}
	return group, nil
}

func (s *GroupService) ListGroups(ctx context.Context, page, size int) ([]model.Group, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 50 {
		size = 20
	}

	offset := (page - 1) * size
	return s.repo.List(ctx, offset, size)
}

// DeactivateGroup soft-disables the group; joins are rejected afterwards.
func (s *GroupService) DeactivateGroup(ctx context.Context, operatorID, groupID uint64) error {
	if operatorID == 0 {
		return ErrUnauthenticated
	}
	ok, err := s.memberRepo.IsAdmin(ctx, groupID, operatorID)
	if err != nil {
		pkg.Log.Error("admin lookup failed", zap.Uint64("group_id", groupID), zap.Error(err))
		return ErrStoreFailure
	}
	if !ok {
		return ErrPermissionDenied
	}
	return s.repo.SetActive(ctx, groupID, false)
}

// MemberCount 读路径：先缓存，miss 时用分布式锁保护回源，防止全体打库
func (s *GroupService) MemberCount(ctx context.Context, groupID uint64) (int64, error) {
	if s.cache == nil {
		return s.memberRepo.CountActive(ctx, groupID)
	}

	if v, ok, err := s.cache.GetMemberCountCached(ctx, groupID); err == nil && ok {
		return v, nil
	}

	token := uuid.NewString()
	got := false
	if s.lock != nil {
		got, _ = s.lock.Acquire(ctx, groupID, token)
	}
	if got {
		defer func() {
			_ = s.lock.Release(ctx, groupID, token)
		}()
		// 拿到锁后二次检查
		if v, ok, err := s.cache.GetMemberCountCached(ctx, groupID); err == nil && ok {
			return v, nil
		}
		v, err := s.memberRepo.CountActive(ctx, groupID)
		if err != nil {
			return 0, err
		}
		_ = s.cache.SetMemberCount(ctx, groupID, v)
		return v, nil
	}

	// 没拿到锁，短暂退避后再读一次缓存
	time.Sleep(50 * time.Millisecond)
	if v, ok, err := s.cache.GetMemberCountCached(ctx, groupID); err == nil && ok {
		return v, nil
	}
	return s.memberRepo.CountActive(ctx, groupID)
}
