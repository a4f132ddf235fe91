package repository

import (
	"context"
	"errors"

	"github.com/concordapp/concord-backend/internal/model"
	"gorm.io/gorm"
)

// DirectMessageRepository mirrors MessageRepository for the conversation-scoped
// message table. The contracts are identical; only the parent column differs.
type DirectMessageRepository interface {
	Create(ctx context.Context, msg *model.DirectMessage) error
	FindInConversation(ctx context.Context, conversationID, messageID uint64) (*model.DirectMessage, error)
	UpdateContent(ctx context.Context, messageID uint64, content string) (*model.DirectMessage, error)
	SoftDelete(ctx context.Context, messageID uint64, tombstone string) (*model.DirectMessage, error)
	ListPage(ctx context.Context, conversationID, afterID uint64, limit int) ([]model.DirectMessage, error)
	SetDB(db *gorm.DB)
}

type directMessageRepository struct {
	db *gorm.DB
}

func NewDirectMessageRepository(db *gorm.DB) DirectMessageRepository {
	return &directMessageRepository{db: db}
}

func (r *directMessageRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func (r *directMessageRepository) Create(ctx context.Context, msg *model.DirectMessage) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *directMessageRepository) FindInConversation(ctx context.Context, conversationID, messageID uint64) (*model.DirectMessage, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var msg model.DirectMessage
	if err := r.db.WithContext(ctx).
		Where("id = ? AND conversation_id = ?", messageID, conversationID).
		First(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *directMessageRepository) UpdateContent(ctx context.Context, messageID uint64, content string) (*model.DirectMessage, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.DirectMessage{}).
		Where("id = ? AND deleted = ?", messageID, false).
		Update("content", content)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.reload(ctx, messageID)
}

func (r *directMessageRepository) SoftDelete(ctx context.Context, messageID uint64, tombstone string) (*model.DirectMessage, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.DirectMessage{}).
		Where("id = ? AND deleted = ?", messageID, false).
		Updates(map[string]interface{}{
			"content":  tombstone,
			"file_url": "",
			"deleted":  true,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.reload(ctx, messageID)
}

func (r *directMessageRepository) ListPage(ctx context.Context, conversationID, afterID uint64, limit int) ([]model.DirectMessage, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	q := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID)
	if afterID != 0 {
		var cur model.DirectMessage
		err := r.db.WithContext(ctx).
			Where("id = ? AND conversation_id = ?", afterID, conversationID).
			First(&cur).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return []model.DirectMessage{}, nil
			}
			return nil, err
		}
		q = q.Where("created_at < ? OR (created_at = ? AND id > ?)", cur.CreatedAt, cur.CreatedAt, cur.ID)
	}
	var msgs []model.DirectMessage
	if err := q.Order("created_at DESC, id ASC").Limit(limit).Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *directMessageRepository) reload(ctx context.Context, messageID uint64) (*model.DirectMessage, error) {
	var msg model.DirectMessage
	if err := r.db.WithContext(ctx).First(&msg, messageID).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}
