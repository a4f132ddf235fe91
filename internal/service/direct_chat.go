package service

import (
	"context"

	"github.com/concordapp/concord-backend/internal/model"
	"github.com/concordapp/concord-backend/internal/repository"
)

// NewDirectChat builds the coordinator for 1:1 conversation messages. There
// is no role concept here; only the owner of a message may mutate it.
func NewDirectChat(convs repository.ConversationRepository, messages repository.DirectMessageRepository, pub Publisher, up Uploader) ChatService {
	return &chatService{
		resolver:      conversationResolver{convs: convs},
		store:         directMessageStore{messages: messages},
		pub:           pub,
		uploader:      up,
		roleModerated: false,
	}
}

type conversationResolver struct {
	convs repository.ConversationRepository
}

func (r conversationResolver) Resolve(ctx context.Context, parent ParentRef, profileUID string) (*Membership, error) {
	m, err := r.convs.ResolveConversationMember(ctx, parent.ID, profileUID)
	if err != nil {
		return nil, err
	}
	return &Membership{ID: m.ID, ProfileUID: m.ProfileUID, Role: m.Role}, nil
}

type directMessageStore struct {
	messages repository.DirectMessageRepository
}

func (s directMessageStore) Insert(ctx context.Context, rec *MessageRecord) error {
	msg := &model.DirectMessage{
		ConversationID: rec.ParentID,
		MemberID:       rec.MemberID,
		Content:        rec.Content,
		FileURL:        rec.FileURL,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return err
	}
	*rec = directRecord(msg)
	return nil
}

func (s directMessageStore) Find(ctx context.Context, parentID, messageID uint64) (*MessageRecord, error) {
	msg, err := s.messages.FindInConversation(ctx, parentID, messageID)
	if err != nil {
		return nil, err
	}
	rec := directRecord(msg)
	return &rec, nil
}

func (s directMessageStore) UpdateContent(ctx context.Context, messageID uint64, content string) (*MessageRecord, error) {
	msg, err := s.messages.UpdateContent(ctx, messageID, content)
	if err != nil {
		return nil, err
	}
	rec := directRecord(msg)
	return &rec, nil
}

func (s directMessageStore) SoftDelete(ctx context.Context, messageID uint64, tombstone string) (*MessageRecord, error) {
	msg, err := s.messages.SoftDelete(ctx, messageID, tombstone)
	if err != nil {
		return nil, err
	}
	rec := directRecord(msg)
	return &rec, nil
}

func (s directMessageStore) ListPage(ctx context.Context, parentID, afterID uint64, limit int) ([]MessageRecord, error) {
	msgs, err := s.messages.ListPage(ctx, parentID, afterID, limit)
	if err != nil {
		return nil, err
	}
	recs := make([]MessageRecord, 0, len(msgs))
	for i := range msgs {
		recs = append(recs, directRecord(&msgs[i]))
	}
	return recs, nil
}

func directRecord(m *model.DirectMessage) MessageRecord {
	return MessageRecord{
		ID:        m.ID,
		ParentID:  m.ConversationID,
		MemberID:  m.MemberID,
		Content:   m.Content,
		FileURL:   m.FileURL,
		Deleted:   m.Deleted,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
