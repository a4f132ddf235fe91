package service

import (
	"context"

	"github.com/concordapp/concord-backend/internal/model"
	"github.com/concordapp/concord-backend/internal/repository"
)

// NewChannelChat builds the coordinator for server-channel messages. Roles
// apply: ADMIN and MODERATOR members may delete other members' messages.
func NewChannelChat(members repository.MemberRepository, messages repository.MessageRepository, pub Publisher, up Uploader) ChatService {
	return &chatService{
		resolver:      channelResolver{members: members},
		store:         channelMessageStore{messages: messages},
		pub:           pub,
		uploader:      up,
		roleModerated: true,
	}
}

type channelResolver struct {
	members repository.MemberRepository
}

func (r channelResolver) Resolve(ctx context.Context, parent ParentRef, profileUID string) (*Membership, error) {
	m, err := r.members.ResolveChannelMember(ctx, parent.ID, parent.ServerID, profileUID)
	if err != nil {
		return nil, err
	}
	return &Membership{ID: m.ID, ProfileUID: m.ProfileUID, Role: m.Role}, nil
}

type channelMessageStore struct {
	messages repository.MessageRepository
}

func (s channelMessageStore) Insert(ctx context.Context, rec *MessageRecord) error {
	msg := &model.Message{
		ChannelID: rec.ParentID,
		MemberID:  rec.MemberID,
		Content:   rec.Content,
		FileURL:   rec.FileURL,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return err
	}
	*rec = channelRecord(msg)
	return nil
}

func (s channelMessageStore) Find(ctx context.Context, parentID, messageID uint64) (*MessageRecord, error) {
	msg, err := s.messages.FindInChannel(ctx, parentID, messageID)
	if err != nil {
		return nil, err
	}
	rec := channelRecord(msg)
	return &rec, nil
}

func (s channelMessageStore) UpdateContent(ctx context.Context, messageID uint64, content string) (*MessageRecord, error) {
	msg, err := s.messages.UpdateContent(ctx, messageID, content)
	if err != nil {
		return nil, err
	}
	rec := channelRecord(msg)
	return &rec, nil
}

func (s channelMessageStore) SoftDelete(ctx context.Context, messageID uint64, tombstone string) (*MessageRecord, error) {
	msg, err := s.messages.SoftDelete(ctx, messageID, tombstone)
	if err != nil {
		return nil, err
	}
	rec := channelRecord(msg)
	return &rec, nil
}

func (s channelMessageStore) ListPage(ctx context.Context, parentID, afterID uint64, limit int) ([]MessageRecord, error) {
	msgs, err := s.messages.ListPage(ctx, parentID, afterID, limit)
	if err != nil {
		return nil, err
	}
	recs := make([]MessageRecord, 0, len(msgs))
	for i := range msgs {
		recs = append(recs, channelRecord(&msgs[i]))
	}
	return recs, nil
}

func channelRecord(m *model.Message) MessageRecord {
	return MessageRecord{
		ID:        m.ID,
		ParentID:  m.ChannelID,
		MemberID:  m.MemberID,
		Content:   m.Content,
		FileURL:   m.FileURL,
		Deleted:   m.Deleted,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
