package repository

import (
	"context"
	"errors"

	"github.com/concordapp/concord-backend/internal/model"
	"gorm.io/gorm"
)

var ErrDBNotReady = errors.New("database not initialized")

type MemberRepository interface {
	// ResolveChannelMember returns the caller's membership for a channel that
	// must belong to the given server. gorm.ErrRecordNotFound covers a missing
	// server/channel pair as well as a missing member row.
	ResolveChannelMember(ctx context.Context, channelID, serverID uint64, profileUID string) (*model.Member, error)
	FindByID(ctx context.Context, id uint64) (*model.Member, error)
	SetDB(db *gorm.DB)
}

type memberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func (r *memberRepository) ResolveChannelMember(ctx context.Context, channelID, serverID uint64, profileUID string) (*model.Member, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var ch model.Channel
	if err := r.db.WithContext(ctx).
		Where("id = ? AND server_id = ?", channelID, serverID).
		First(&ch).Error; err != nil {
		return nil, err
	}
	var m model.Member
	if err := r.db.WithContext(ctx).
		Where("server_id = ? AND profile_uid = ?", serverID, profileUID).
		First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *memberRepository) FindByID(ctx context.Context, id uint64) (*model.Member, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var m model.Member
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}
