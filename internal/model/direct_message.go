package model

import "time"

type DirectMessage struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uint64    `gorm:"column:conversation_id;index:idx_conversation_created" json:"conversationId"`
	MemberID       uint64    `gorm:"column:member_id;index" json:"memberId"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	FileURL        string    `gorm:"column:file_url;size:512;not null;default:''" json:"fileUrl"`
	Deleted        bool      `gorm:"not null;default:false" json:"deleted"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index:idx_conversation_created" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (DirectMessage) TableName() string {
	return "direct_messages"
}
