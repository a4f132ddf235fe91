package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/concordapp/concord-backend/internal/model"
	"github.com/concordapp/concord-backend/internal/repository"
	"gorm.io/gorm"
)

type ConversationService interface {
	// GetOrCreate returns the conversation for the unordered member pair,
	// creating it on first contact. The caller must be one of the two members.
	GetOrCreate(ctx context.Context, memberOneID, memberTwoID uint64, profileUID string) (*model.Conversation, error)
}

type conversationService struct {
	convs   repository.ConversationRepository
	members repository.MemberRepository
}

func NewConversationService(convs repository.ConversationRepository, members repository.MemberRepository) ConversationService {
	return &conversationService{convs: convs, members: members}
}

func (s *conversationService) GetOrCreate(ctx context.Context, memberOneID, memberTwoID uint64, profileUID string) (*model.Conversation, error) {
	if memberOneID == memberTwoID {
		return nil, fmt.Errorf("%w: cannot converse with yourself", ErrValidation)
	}
	one, err := s.findMember(ctx, memberOneID)
	if err != nil {
		return nil, err
	}
	two, err := s.findMember(ctx, memberTwoID)
	if err != nil {
		return nil, err
	}
	if one.ProfileUID != profileUID && two.ProfileUID != profileUID {
		return nil, ErrUnauthorized
	}
	return s.convs.FindOrCreate(ctx, memberOneID, memberTwoID)
}

func (s *conversationService) findMember(ctx context.Context, id uint64) (*model.Member, error) {
	m, err := s.members.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: member", ErrNotFound)
		}
		return nil, err
	}
	return m, nil
}
