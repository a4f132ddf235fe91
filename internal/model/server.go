package model

import "time"

type Server struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	OwnerUID  string    `gorm:"column:owner_uid;size:128;index" json:"ownerUid"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Server) TableName() string {
	return "servers"
}
