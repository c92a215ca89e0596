package mysql

import (
	"fmt"
	"sync/atomic"
	"testing"

	"GroupHub/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDBSeq atomic.Int64

// openTestDB gives each test its own in-memory database. TranslateError keeps
// duplicate-key detection identical to the MySQL setup.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Group{},
		&model.GroupMember{},
		&model.MemberOutbox{},
	))
	return db
}

func seedGroup(t *testing.T, db *gorm.DB, isPublic, isActive bool, maxMembers int64) *model.Group {
	t.Helper()
	g := &model.Group{
		Name:       fmt.Sprintf("group-%d", testDBSeq.Add(1)),
		CreatorID:  1,
		IsPublic:   isPublic,
		IsActive:   isActive,
		MaxMembers: maxMembers,
	}
	require.NoError(t, db.Create(g).Error)
	return g
}

// requireCounterConsistent asserts the core invariant: the cached counter
// matches the number of active rows and never exceeds capacity.
func requireCounterConsistent(t *testing.T, db *gorm.DB, groupID uint64) {
	t.Helper()
	var g model.Group
	require.NoError(t, db.First(&g, groupID).Error)

	repo := &GroupMemberRepository{DB: db}
	real, err := repo.CountActive(t.Context(), groupID)
	require.NoError(t, err)

	require.Equal(t, real, g.MemberCount, "member_count must equal COUNT of active rows")
	require.LessOrEqual(t, g.MemberCount, g.MaxMembers)
	require.GreaterOrEqual(t, g.MemberCount, int64(0))
}
