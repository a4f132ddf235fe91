package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/concordapp/concord-backend/internal/model"
	"gorm.io/gorm"
)

// TombstoneContent replaces the body of a deleted message. The row itself is
// kept so ids and cursor positions stay valid.
const TombstoneContent = "This message has been deleted."

const messageBatch = 10

// TopicMessages carries newly created messages for a channel or conversation.
func TopicMessages(parentID uint64) string {
	return fmt.Sprintf("chat:%d:messages", parentID)
}

// TopicMessageUpdates carries edits and deletions, so subscribers can apply
// mutate-in-place semantics instead of appending.
func TopicMessageUpdates(parentID uint64) string {
	return fmt.Sprintf("chat:%d:messages:update", parentID)
}

// ParentRef names the scope a message belongs to. ServerID is zero for
// conversations.
type ParentRef struct {
	ID       uint64
	ServerID uint64
}

// Membership is the resolved relationship between the caller and the parent.
type Membership struct {
	ID         uint64
	ProfileUID string
	Role       model.MemberRole
}

// MessageRecord is the kind-neutral view of a channel or direct message the
// coordinator operates on.
type MessageRecord struct {
	ID        uint64    `json:"id"`
	ParentID  uint64    `json:"parentId"`
	MemberID  uint64    `json:"memberId"`
	Content   string    `json:"content"`
	FileURL   string    `json:"fileUrl"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type MessagePage struct {
	Items      []MessageRecord `json:"items"`
	NextCursor string          `json:"nextCursor"`
}

// MembershipResolver answers whether the caller belongs to the parent scope.
// Implementations are read-only.
type MembershipResolver interface {
	Resolve(ctx context.Context, parent ParentRef, profileUID string) (*Membership, error)
}

// MessageStore is the persisted-message surface the coordinator depends on.
// Lookups are always scoped by parent id. Content writes are guarded: a
// tombstoned row never accepts further writes, and the guarded update reports
// gorm.ErrRecordNotFound so a racing mutation surfaces as not-found.
type MessageStore interface {
	Insert(ctx context.Context, rec *MessageRecord) error
	Find(ctx context.Context, parentID, messageID uint64) (*MessageRecord, error)
	UpdateContent(ctx context.Context, messageID uint64, content string) (*MessageRecord, error)
	SoftDelete(ctx context.Context, messageID uint64, tombstone string) (*MessageRecord, error)
	ListPage(ctx context.Context, parentID, afterID uint64, limit int) ([]MessageRecord, error)
}

// Publisher fans a committed mutation out to live subscribers of a topic.
// Delivery is best effort; failures never unwind the mutation.
type Publisher interface {
	Publish(topic string, payload interface{})
}

// Uploader transfers raw attachment bytes to object storage and returns a URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

// ChatService coordinates authorization, mutation and fan-out for one message
// kind. Channel and direct flavors share this contract.
type ChatService interface {
	Create(ctx context.Context, parent ParentRef, profileUID, content string, file []byte, fileType string) (*MessageRecord, error)
	Edit(ctx context.Context, parent ParentRef, messageID uint64, profileUID, content string) (*MessageRecord, error)
	Delete(ctx context.Context, parent ParentRef, messageID uint64, profileUID string) (*MessageRecord, error)
	Page(ctx context.Context, parentID uint64, cursor string) (*MessagePage, error)
}

type chatService struct {
	resolver MembershipResolver
	store    MessageStore
	pub      Publisher
	uploader Uploader
	// roleModerated grants ADMIN/MODERATOR deletion of others' messages.
	// Conversations have no role concept, so only owners ever delete there.
	roleModerated bool
}

func (s *chatService) Create(ctx context.Context, parent ParentRef, profileUID, content string, file []byte, fileType string) (*MessageRecord, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}
	member, err := s.resolve(ctx, parent, profileUID)
	if err != nil {
		return nil, err
	}

	fileURL := ""
	if len(file) > 0 {
		if s.uploader == nil {
			return nil, fmt.Errorf("%w: no uploader configured", ErrUploadFailed)
		}
		url, err := s.uploader.Upload(ctx, file, fileType)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
		fileURL = url
	}

	rec := &MessageRecord{
		ParentID: parent.ID,
		MemberID: member.ID,
		Content:  content,
		FileURL:  fileURL,
	}
	if err := s.store.Insert(ctx, rec); err != nil {
		return nil, err
	}

	s.pub.Publish(TopicMessages(parent.ID), rec)
	return rec, nil
}

func (s *chatService) Edit(ctx context.Context, parent ParentRef, messageID uint64, profileUID, content string) (*MessageRecord, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}
	member, msg, err := s.loadLive(ctx, parent, messageID, profileUID)
	if err != nil {
		return nil, err
	}

	isOwner := msg.MemberID == member.ID
	isAdmin := member.Role == model.RoleAdmin
	isModerator := member.Role == model.RoleModerator
	canModify := isOwner || isAdmin || isModerator

	if !canModify {
		return nil, ErrUnauthorized
	}
	// Editing stays owner-only even for admins and moderators.
	if !isOwner {
		return nil, ErrUnauthorized
	}

	updated, err := s.store.UpdateContent(ctx, messageID, content)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: message", ErrNotFound)
		}
		return nil, err
	}

	s.pub.Publish(TopicMessageUpdates(parent.ID), updated)
	return updated, nil
}

func (s *chatService) Delete(ctx context.Context, parent ParentRef, messageID uint64, profileUID string) (*MessageRecord, error) {
	member, msg, err := s.loadLive(ctx, parent, messageID, profileUID)
	if err != nil {
		return nil, err
	}

	isOwner := msg.MemberID == member.ID
	isAdmin := s.roleModerated && member.Role == model.RoleAdmin
	isModerator := s.roleModerated && member.Role == model.RoleModerator

	if !isOwner && !isAdmin && !isModerator {
		return nil, ErrUnauthorized
	}

	deleted, err := s.store.SoftDelete(ctx, messageID, TombstoneContent)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: message", ErrNotFound)
		}
		return nil, err
	}

	s.pub.Publish(TopicMessageUpdates(parent.ID), deleted)
	return deleted, nil
}

func (s *chatService) Page(ctx context.Context, parentID uint64, cursor string) (*MessagePage, error) {
	var afterID uint64
	if cursor != "" {
		id, err := strconv.ParseUint(cursor, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid cursor", ErrValidation)
		}
		afterID = id
	}

	items, err := s.store.ListPage(ctx, parentID, afterID, messageBatch)
	if err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(items) == messageBatch {
		nextCursor = strconv.FormatUint(items[messageBatch-1].ID, 10)
	}
	return &MessagePage{Items: items, NextCursor: nextCursor}, nil
}

// resolve translates a failed membership lookup to not-found: callers outside
// the parent learn nothing beyond "not found".
func (s *chatService) resolve(ctx context.Context, parent ParentRef, profileUID string) (*Membership, error) {
	member, err := s.resolver.Resolve(ctx, parent, profileUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: member", ErrNotFound)
		}
		return nil, err
	}
	return member, nil
}

// loadLive resolves the acting membership, then loads the target message.
// Absent and tombstoned messages are both not-found; the existence check runs
// strictly before any authorization decision.
func (s *chatService) loadLive(ctx context.Context, parent ParentRef, messageID uint64, profileUID string) (*Membership, *MessageRecord, error) {
	member, err := s.resolve(ctx, parent, profileUID)
	if err != nil {
		return nil, nil, err
	}
	msg, err := s.store.Find(ctx, parent.ID, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: message", ErrNotFound)
		}
		return nil, nil, err
	}
	if msg.Deleted {
		return nil, nil, fmt.Errorf("%w: message", ErrNotFound)
	}
	return member, msg, nil
}
