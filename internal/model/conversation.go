package model

import "time"

// Conversation is the unordered pair of two members. Uniqueness is enforced
// on (member_one_id, member_two_id); lookups must try both orderings.
type Conversation struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	MemberOneID uint64    `gorm:"column:member_one_id;index:idx_member_pair,unique" json:"memberOneId"`
	MemberTwoID uint64    `gorm:"column:member_two_id;index:idx_member_pair,unique" json:"memberTwoId"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Conversation) TableName() string {
	return "conversations"
}
