package repository

import (
	"context"
	"errors"

	"github.com/concordapp/concord-backend/internal/model"
	"gorm.io/gorm"
)

type ConversationRepository interface {
	// FindOrCreate looks up the conversation for an unordered member pair,
	// trying both orderings before inserting a new row.
	FindOrCreate(ctx context.Context, memberOneID, memberTwoID uint64) (*model.Conversation, error)
	FindByID(ctx context.Context, id uint64) (*model.Conversation, error)
	// ResolveConversationMember returns whichever of the conversation's two
	// member rows carries the given profile uid.
	ResolveConversationMember(ctx context.Context, conversationID uint64, profileUID string) (*model.Member, error)
	SetDB(db *gorm.DB)
}

type conversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func (r *conversationRepository) FindOrCreate(ctx context.Context, memberOneID, memberTwoID uint64) (*model.Conversation, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var cv model.Conversation
	err := r.db.WithContext(ctx).
		Where("(member_one_id = ? AND member_two_id = ?) OR (member_one_id = ? AND member_two_id = ?)",
			memberOneID, memberTwoID, memberTwoID, memberOneID).
		First(&cv).Error
	if err == nil {
		return &cv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	cv = model.Conversation{MemberOneID: memberOneID, MemberTwoID: memberTwoID}
	if err := r.db.WithContext(ctx).Create(&cv).Error; err != nil {
		return nil, err
	}
	return &cv, nil
}

func (r *conversationRepository) FindByID(ctx context.Context, id uint64) (*model.Conversation, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var cv model.Conversation
	if err := r.db.WithContext(ctx).First(&cv, id).Error; err != nil {
		return nil, err
	}
	return &cv, nil
}

func (r *conversationRepository) ResolveConversationMember(ctx context.Context, conversationID uint64, profileUID string) (*model.Member, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	cv, err := r.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	var m model.Member
	if err := r.db.WithContext(ctx).
		Where("id IN (?, ?) AND profile_uid = ?", cv.MemberOneID, cv.MemberTwoID, profileUID).
		First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}
