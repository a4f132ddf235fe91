package repository

import (
	"context"
	"errors"

	"github.com/concordapp/concord-backend/internal/model"
	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	// FindInChannel loads a message by id scoped to its channel, regardless of
	// the deleted flag. The parent scope is mandatory on every lookup.
	FindInChannel(ctx context.Context, channelID, messageID uint64) (*model.Message, error)
	// UpdateContent writes new content only while the row is live. Returns
	// gorm.ErrRecordNotFound when the row is absent or already tombstoned.
	UpdateContent(ctx context.Context, messageID uint64, content string) (*model.Message, error)
	// SoftDelete tombstones a live row: fixed content, cleared file_url,
	// deleted = true. The guard makes a second delete report not-found.
	SoftDelete(ctx context.Context, messageID uint64, tombstone string) (*model.Message, error)
	// ListPage returns up to limit messages ordered created_at DESC, id ASC,
	// strictly after the cursor row when afterID is non-zero.
	ListPage(ctx context.Context, channelID, afterID uint64, limit int) ([]model.Message, error)
	SetDB(db *gorm.DB)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func (r *messageRepository) Create(ctx context.Context, msg *model.Message) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *messageRepository) FindInChannel(ctx context.Context, channelID, messageID uint64) (*model.Message, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var msg model.Message
	if err := r.db.WithContext(ctx).
		Where("id = ? AND channel_id = ?", messageID, channelID).
		First(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) UpdateContent(ctx context.Context, messageID uint64, content string) (*model.Message, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.Message{}).
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

func (r *messageRepository) SoftDelete(ctx context.Context, messageID uint64, tombstone string) (*model.Message, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.Message{}).
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

func (r *messageRepository) ListPage(ctx context.Context, channelID, afterID uint64, limit int) ([]model.Message, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	q := r.db.WithContext(ctx).Where("channel_id = ?", channelID)
	if afterID != 0 {
		var cur model.Message
		err := r.db.WithContext(ctx).
			Where("id = ? AND channel_id = ?", afterID, channelID).
			First(&cur).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return []model.Message{}, nil
			}
			return nil, err
		}
		q = q.Where("created_at < ? OR (created_at = ? AND id > ?)", cur.CreatedAt, cur.CreatedAt, cur.ID)
	}
	var msgs []model.Message
	if err := q.Order("created_at DESC, id ASC").Limit(limit).Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *messageRepository) reload(ctx context.Context, messageID uint64) (*model.Message, error) {
	var msg model.Message
	if err := r.db.WithContext(ctx).First(&msg, messageID).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}
