package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	MemberCntTTL       = 24 * time.Hour
	GroupLockTTL       = 300 * time.Millisecond
	MemberCntKeyPrefix = "member:cnt:group" // 缓存某个小组的活跃成员数
	GroupLockKeyPrefix = "lock:group"       // 回源重建用的分布式锁
)

// GroupCacheRepository 小组读侧缓存：join/leave 提交后失效，读路径按需回填
type GroupCacheRepository struct {
	memberCntTTL time.Duration
}

type DistLock struct {
	RDB *redis.Client
}

func NewGroupCacheRepository() *GroupCacheRepository {
	return &GroupCacheRepository{
		memberCntTTL: MemberCntTTL,
	}
}

func (r *GroupCacheRepository) memberCntKey(groupID uint64) string {
	return fmt.Sprintf("%s:%d", MemberCntKeyPrefix, groupID)
}

// GetMemberCountCached reads the cached count. The second return reports a
// cache hit.
func (r *GroupCacheRepository) GetMemberCountCached(ctx context.Context, groupID uint64) (int64, bool, error) {
	ck := r.memberCntKey(groupID)
	val, err := Client.Get(ctx, ck).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	return val, true, err
}

// SetMemberCount backfills the count after a datastore read.
func (r *GroupCacheRepository) SetMemberCount(ctx context.Context, groupID uint64, cnt int64) error {
	return Client.Set(ctx, r.memberCntKey(groupID), cnt, r.memberCntTTL).Err()
}

// Invalidate 删除计数Key，支持可选延迟二删，压缩并发回填窗口的脏数据
func (r *GroupCacheRepository) Invalidate(ctx context.Context, groupID uint64, delay ...time.Duration) error {
	key := r.memberCntKey(groupID)
	if err := Client.Del(ctx, key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if len(delay) > 0 && delay[0] > 0 {
		d := delay[0]
		go func() {
			t := time.NewTimer(d)
			defer t.Stop()
			<-t.C
			_ = Client.Del(context.Background(), key).Err()
		}()
	}
	return nil
}

// Acquire 请求加分布式锁
func (l *DistLock) Acquire(ctx context.Context, groupID uint64, token string) (bool, error) {
	key := fmt.Sprintf("%s:%d", GroupLockKeyPrefix, groupID)
	return l.RDB.SetNX(ctx, key, token, GroupLockTTL).Result()
}

// Release 用lua保证原子性
func (l *DistLock) Release(ctx context.Context, groupID uint64, token string) error {
	key := fmt.Sprintf("%s:%d", GroupLockKeyPrefix, groupID)
	_, err := redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`).Run(ctx, l.RDB, []string{key}, token).Result()
	return err
}
