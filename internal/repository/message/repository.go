package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aniladanir/mailing-campaign-service/internal/cache"
	"github.com/aniladanir/mailing-campaign-service/internal/domain"
	"gorm.io/gorm"
)

type Repository interface {
	FindByStatuses(ctx context.Context, statuses ...domain.MessageStatus) ([]domain.Message, error)
	GetByID(ctx context.Context, id int64) (*domain.Message, error)
	UpdateStatus(ctx context.Context, msg *domain.Message) error
	CacheSentMessage(ctx context.Context, msgID int64, sentAt time.Time) error
}

type repo struct {
	db    *gorm.DB
	cache cache.Cache
}

func NewMessageRepository(db *gorm.DB, cache cache.Cache) Repository {
	return &repo{db: db, cache: cache}
}

// FindByStatuses returns messages whose status is in the given set, oldest first
func (r *repo) FindByStatuses(ctx context.Context, statuses ...domain.MessageStatus) ([]domain.Message, error) {
	var messages []domain.Message
	if len(statuses) == 0 {
		return messages, nil
	}
	err := r.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("id").
		Find(&messages).Error
	return messages, err
}

// GetByID loads a message together with its campaign and the client's timezone
func (r *repo) GetByID(ctx context.Context, id int64) (*domain.Message, error) {
	var msg domain.Message
	err := r.db.WithContext(ctx).
		Preload("Campaign").
		Preload("Client.Timezone").
		First(&msg, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("message %d: %w", id, domain.ErrNotFound)
	}
	return &msg, err
}

// UpdateStatus writes status and sent_at only, leaving associations untouched
func (r *repo) UpdateStatus(ctx context.Context, msg *domain.Message) error {
	res := r.db.WithContext(ctx).
		Model(msg).
		Select("status", "sent_at").
		Updates(msg)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("message %d: %w", msg.ID, domain.ErrNotFound)
	}
	return nil
}

// CacheSentMessage writes delivered message attributes to cache
func (r *repo) CacheSentMessage(ctx context.Context, msgID int64, sentAt time.Time) error {
	key := fmt.Sprintf("sent_msg:%d", msgID)

	value := map[string]any{
		"messageId": strconv.FormatInt(msgID, 10),
		"sentAt":    sentAt,
	}

	jsonVal, _ := json.Marshal(value)
	// Expire after 24 hours to keep memory clean
	return r.cache.Set(ctx, key, string(jsonVal), 24*time.Hour)
}
