package model

import "time"

type Group struct {
	ID          uint64 `gorm:"primaryKey"`
	Name        string `gorm:"uniqueIndex;size:64;not null"`
	Description string `gorm:"type:text"`
	CreatorID   uint64 `gorm:"not null;index"`
	IsPublic    bool   `gorm:"not null;default:true"`
	IsActive    bool   `gorm:"not null;default:true"`
	MemberCount int64  `gorm:"not null;default:0"` // cached count of ACTIVE memberships
	MaxMembers  int64  `gorm:"not null;default:100"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MemberStatus is the persisted membership state. The absence of a row is the
// implicit fourth state "none".
type MemberStatus int8

const (
	StatusPending MemberStatus = 0
	StatusActive  MemberStatus = 1
	StatusBanned  MemberStatus = 2
)

func (s MemberStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusActive:
		return "active"
	case StatusBanned:
		return "banned"
	}
	return "none"
}

// Counted reports whether a membership in this status contributes to
// Group.MemberCount.
func (s MemberStatus) Counted() bool {
	return s == StatusActive
}

type GroupMember struct {
	ID        uint64       `gorm:"primaryKey"`
	GroupID   uint64       `gorm:"not null;index;uniqueIndex:uk_group_user"`
	UserID    uint64       `gorm:"not null;index;uniqueIndex:uk_group_user"`
	Status    MemberStatus `gorm:"not null;default:0"`
	Role      int          `gorm:"not null;default:0"` // 0=member, 1=admin
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (GroupMember) TableName() string {
	return "group_members"
}
