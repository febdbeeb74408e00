package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aniladanir/mailing-campaign-service/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const insertBatchSize = 500

type Repository interface {
	FindByStatus(ctx context.Context, status domain.CampaignStatus) ([]domain.Campaign, error)
	GetByID(ctx context.Context, id int64) (*domain.Campaign, error)
	Save(ctx context.Context, c *domain.Campaign) error
	Audience(ctx context.Context, c *domain.Campaign) ([]domain.Client, error)
	Activate(ctx context.Context, c *domain.Campaign, messages []domain.Message) error
	Stats(ctx context.Context, campaignIDs []int64) (domain.Report, error)
}

type repo struct {
	db  *gorm.DB
	now func() time.Time
}

// NewCampaignRepository returns a gorm backed repository. now is consulted by
// every write to keep expired campaigns ENDED.
func NewCampaignRepository(db *gorm.DB, now func() time.Time) Repository {
	if now == nil {
		now = time.Now
	}
	return &repo{db: db, now: now}
}

func (r *repo) FindByStatus(ctx context.Context, status domain.CampaignStatus) ([]domain.Campaign, error) {
	var campaigns []domain.Campaign
	err := r.db.WithContext(ctx).
		Preload("Tags").
		Preload("Operators").
		Where("status = ?", status).
		Order("id").
		Find(&campaigns).Error
	return campaigns, err
}

func (r *repo) GetByID(ctx context.Context, id int64) (*domain.Campaign, error) {
	var c domain.Campaign
	err := r.db.WithContext(ctx).
		Preload("Tags").
		Preload("Operators").
		First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("campaign %d: %w", id, domain.ErrNotFound)
	}
	return &c, err
}

// Save persists the campaign row. Expiry is enforced first, so an expired
// campaign is always written as ENDED.
func (r *repo) Save(ctx context.Context, c *domain.Campaign) error {
	c.EnforceExpiry(r.now())
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(c).Error
}

// Audience returns clients matching both an operator and a tag of the campaign
func (r *repo) Audience(ctx context.Context, c *domain.Campaign) ([]domain.Client, error) {
	operatorIDs := make([]int64, 0, len(c.Operators))
	for _, op := range c.Operators {
		operatorIDs = append(operatorIDs, op.ID)
	}
	tagIDs := make([]int64, 0, len(c.Tags))
	for _, tag := range c.Tags {
		tagIDs = append(tagIDs, tag.ID)
	}

	var clients []domain.Client
	if len(operatorIDs) == 0 || len(tagIDs) == 0 {
		return clients, nil
	}

	err := r.db.WithContext(ctx).
		Where("operator_id IN ? AND tag_id IN ?", operatorIDs, tagIDs).
		Order("id").
		Find(&clients).Error
	return clients, err
}

// Activate stores the campaign and bulk inserts its messages in one transaction
func (r *repo) Activate(ctx context.Context, c *domain.Campaign, messages []domain.Message) error {
	c.EnforceExpiry(r.now())
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(c).Error; err != nil {
			return err
		}
		if len(messages) == 0 {
			return nil
		}
		return tx.Omit(clause.Associations).CreateInBatches(messages, insertBatchSize).Error
	})
}

type statusRow struct {
	CampaignID int64
	Status     domain.MessageStatus
	Count      int64
}

// Stats counts messages per status for the given campaigns, or all campaigns
// when campaignIDs is empty
func (r *repo) Stats(ctx context.Context, campaignIDs []int64) (domain.Report, error) {
	db := r.db.WithContext(ctx)

	var ids []int64
	q := db.Model(&domain.Campaign{}).Order("id")
	if len(campaignIDs) > 0 {
		q = q.Where("id IN ?", campaignIDs)
	}
	if err := q.Pluck("id", &ids).Error; err != nil {
		return domain.Report{}, err
	}

	report := domain.Report{
		CampaignsCount: int64(len(ids)),
		Campaigns:      make([]domain.CampaignStats, 0, len(ids)),
	}
	if len(ids) == 0 {
		return report, nil
	}

	var rows []statusRow
	err := db.Model(&domain.Message{}).
		Select("campaign_id, status, count(*) AS count").
		Where("campaign_id IN ?", ids).
		Group("campaign_id, status").
		Order("campaign_id, status").
		Scan(&rows).Error
	if err != nil {
		return domain.Report{}, err
	}

	byCampaign := make(map[int64][]domain.StatusCount, len(ids))
	for _, row := range rows {
		byCampaign[row.CampaignID] = append(byCampaign[row.CampaignID], domain.StatusCount{Status: row.Status, Count: row.Count})
	}

	for _, id := range ids {
		stats := domain.CampaignStats{ID: id, Messages: domain.MessageStats{Statuses: []domain.StatusCount{}}}
		for _, sc := range byCampaign[id] {
			stats.Messages.Count += sc.Count
			stats.Messages.Statuses = append(stats.Messages.Statuses, sc)
		}
		report.Campaigns = append(report.Campaigns, stats)
	}

	return report, nil
}
