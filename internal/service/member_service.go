package service

import (
	"context"
	"errors"
	"time"

	"GroupHub/internal/model"
	"GroupHub/internal/pkg"
	"GroupHub/internal/repository/mysql"
	"GroupHub/internal/repository/redis"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrUnauthenticated  = errors.New("login required")
	ErrPermissionDenied = errors.New("admin permission required")
	// ErrStoreFailure is what callers see for unexpected datastore errors; the
	// real cause is logged, never surfaced.
	ErrStoreFailure = errors.New("service temporarily unavailable, please retry")
)

// expectedErrs are the recoverable, user-facing outcomes of the membership
// operations. Anything else from the store is treated as transient.
var expectedErrs = []error{
	mysql.ErrGroupNotFound,
	mysql.ErrGroupInactive,
	mysql.ErrGroupFull,
	mysql.ErrAlreadyMember,
	mysql.ErrJoinPending,
	mysql.ErrBanned,
	mysql.ErrNotMember,
	mysql.ErrNotPending,
}

type MemberService struct {
	repo      *mysql.GroupMemberRepository
	groupRepo *mysql.GroupRepository
	userRepo  *mysql.UserRepository
	cache     *redis.GroupCacheRepository
	mailCfg   *pkg.SMTPConfig
}

// NewMemberService wires the membership operations. cache and mailCfg may be
// nil: invalidation and notification mail are then skipped.
func NewMemberService(db *gorm.DB, cache *redis.GroupCacheRepository, mailCfg *pkg.SMTPConfig) *MemberService {
	return &MemberService{
		repo:      &mysql.GroupMemberRepository{DB: db},
		groupRepo: &mysql.GroupRepository{DB: db},
		userRepo:  &mysql.UserRepository{DB: db},
		cache:     cache,
		mailCfg:   mailCfg,
	}
}

// JoinGroup validates eligibility and creates the membership, returning the
// status it was assigned: active for public groups, pending for private ones.
func (s *MemberService) JoinGroup(ctx context.Context, userID, groupID uint64) (model.MemberStatus, error) {
	if userID == 0 {
		return 0, ErrUnauthenticated
	}
	if groupID == 0 {
		return 0, mysql.ErrGroupNotFound
	}
	status, err := s.repo.Join(ctx, groupID, userID)
	if err != nil {
		return 0, s.storeErr("join group", groupID, userID, err)
	}
	s.invalidate(ctx, groupID)
	return status, nil
}

// LeaveGroup removes the caller's membership. Leaving a group you are not in
// is an error by policy, not a silent no-op.
func (s *MemberService) LeaveGroup(ctx context.Context, userID, groupID uint64) error {
	if userID == 0 {
		return ErrUnauthenticated
	}
	if groupID == 0 {
		return mysql.ErrGroupNotFound
	}
	if err := s.repo.Leave(ctx, groupID, userID); err != nil {
		return s.storeErr("leave group", groupID, userID, err)
	}
	s.invalidate(ctx, groupID)
	return nil
}

// ApproveRequest flips a pending request to active. Capacity is re-checked at
// approval time; a full group rejects the approval and keeps the request.
func (s *MemberService) ApproveRequest(ctx context.Context, operatorID, groupID, userID uint64) error {
	if err := s.requireAdmin(ctx, operatorID, groupID); err != nil {
		return err
	}
	if err := s.repo.Approve(ctx, groupID, userID); err != nil {
		return s.storeErr("approve request", groupID, userID, err)
	}
	s.invalidate(ctx, groupID)
	s.notifyDecision(groupID, userID, true)
	return nil
}

// RejectRequest drops a pending request.
func (s *MemberService) RejectRequest(ctx context.Context, operatorID, groupID, userID uint64) error {
	if err := s.requireAdmin(ctx, operatorID, groupID); err != nil {
		return err
	}
	if err := s.repo.Reject(ctx, groupID, userID); err != nil {
		return s.storeErr("reject request", groupID, userID, err)
	}
	s.notifyDecision(groupID, userID, false)
	return nil
}

// BanMember marks a user banned in the group; banned users can never rejoin.
func (s *MemberService) BanMember(ctx context.Context, operatorID, groupID, userID uint64) error {
	if err := s.requireAdmin(ctx, operatorID, groupID); err != nil {
		return err
	}
	if operatorID == userID {
		return errors.New("cannot ban yourself")
	}
	if err := s.repo.Ban(ctx, groupID, userID); err != nil {
		return s.storeErr("ban member", groupID, userID, err)
	}
	s.invalidate(ctx, groupID)
	return nil
}

func (s *MemberService) ListMembers(ctx context.Context, groupID uint64, cursor uint64, limit int) ([]model.GroupMember, uint64, error) {
	return s.repo.ListMembers(ctx, groupID, cursor, limit)
}

// ListRequests is the approval queue, admin only.
func (s *MemberService) ListRequests(ctx context.Context, operatorID, groupID uint64, cursor uint64, limit int) ([]model.GroupMember, uint64, error) {
	if err := s.requireAdmin(ctx, operatorID, groupID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListPending(ctx, groupID, cursor, limit)
}

// MembershipStatus reports the caller's state in the group, "none" included.
func (s *MemberService) MembershipStatus(ctx context.Context, userID, groupID uint64) (string, error) {
	if userID == 0 {
		return "", ErrUnauthenticated
	}
	status, found, err := s.repo.Membership(ctx, groupID, userID)
	if err != nil {
		return "", s.storeErr("membership lookup", groupID, userID, err)
	}
	if !found {
		return "none", nil
	}
	return status.String(), nil
}

func (s *MemberService) requireAdmin(ctx context.Context, operatorID, groupID uint64) error {
	if operatorID == 0 {
		return ErrUnauthenticated
	}
	ok, err := s.repo.IsAdmin(ctx, groupID, operatorID)
	if err != nil {
		return s.storeErr("admin lookup", groupID, operatorID, err)
	}
	if !ok {
		return ErrPermissionDenied
	}
	return nil
}

// storeErr passes expected outcomes through and converts everything else into
// a generic retryable failure after logging the cause.
func (s *MemberService) storeErr(op string, groupID, userID uint64, err error) error {
	for _, e := range expectedErrs {
		if errors.Is(err, e) {
			return err
		}
	}
	pkg.Log.Error("membership store failure",
		zap.String("op", op),
		zap.Uint64("group_id", groupID),
		zap.Uint64("user_id", userID),
		zap.Error(err),
	)
	return ErrStoreFailure
}

// invalidate 提交后使读侧缓存失效，失败不影响主流程
func (s *MemberService) invalidate(ctx context.Context, groupID uint64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, groupID, 500*time.Millisecond); err != nil {
		pkg.Log.Warn("cache invalidation failed", zap.Uint64("group_id", groupID), zap.Error(err))
	}
}

// notifyDecision sends the approval outcome by mail, best-effort.
func (s *MemberService) notifyDecision(groupID, userID uint64, approved bool) {
	if s.mailCfg == nil {
		return
	}
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return
	}
	group, err := s.groupRepo.FindByID(context.Background(), groupID)
	if err != nil {
		return
	}
	cfg := *s.mailCfg
	go func() {
		html := pkg.MembershipDecisionHTML(group.Name, approved)
		if err := pkg.SendEmail(cfg, user.Email, "入组申请结果", html); err != nil {
			pkg.Log.Warn("decision mail failed", zap.Uint64("user_id", userID), zap.Error(err))
		}
	}()
}
