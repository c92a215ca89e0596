package model

import "time"

// MemberOutbox records membership events inside the mutating transaction so a
// relayer can publish them after commit.
type MemberOutbox struct {
	ID        uint64 `gorm:"primaryKey"`
	EventType string `gorm:"size:16;not null"` // join / leave / approve / reject / ban
	GroupID   uint64 `gorm:"not null;index"`
	UserID    uint64 `gorm:"not null"`
	Payload   string `gorm:"type:json;not null"`
	Status    int8   `gorm:"not null;default:0;comment:'0=pending,1=sent,2=failed'"`
	Retry     int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (MemberOutbox) TableName() string { return "member_outbox" }
