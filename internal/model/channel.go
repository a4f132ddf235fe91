package model

import "time"

type Channel struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ServerID  uint64    `gorm:"column:server_id;index" json:"serverId"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Channel) TableName() string {
	return "channels"
}
