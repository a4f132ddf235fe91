package model

import "time"

// Message is a channel message. Deletion is a soft update: the row keeps its
// id and created_at so history cursors stay valid; deleted never reverts.
type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ChannelID uint64    `gorm:"column:channel_id;index:idx_channel_created" json:"channelId"`
	MemberID  uint64    `gorm:"column:member_id;index" json:"memberId"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	FileURL   string    `gorm:"column:file_url;size:512;not null;default:''" json:"fileUrl"`
	Deleted   bool      `gorm:"not null;default:false" json:"deleted"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_channel_created" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Message) TableName() string {
	return "messages"
}
