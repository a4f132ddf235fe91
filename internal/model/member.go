package model

import "time"

type MemberRole string

const (
	RoleGuest     MemberRole = "GUEST"
	RoleModerator MemberRole = "MODERATOR"
	RoleAdmin     MemberRole = "ADMIN"
)

// Member binds a profile (verified identity) to a server. Conversations
// reference two member rows; roles only carry meaning in the server context.
type Member struct {
	ID         uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ServerID   uint64     `gorm:"column:server_id;index:idx_server_profile,unique" json:"serverId"`
	ProfileUID string     `gorm:"column:profile_uid;size:128;index:idx_server_profile,unique" json:"profileUid"`
	Role       MemberRole `gorm:"size:16;not null;default:GUEST" json:"role"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Member) TableName() string {
	return "members"
}
