package models

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ActivityLog is an append-only audit record of a mutating API call.
type ActivityLog struct {
	ID           uint      `gorm:"primaryKey"`
	Method       string    `gorm:"size:10;not null"`
	TargetEntity string    `gorm:"size:50;not null;index"`
	ActorID      *uint     `gorm:"index"`
	Description  string    `gorm:"type:text;not null"`
	CreatedAt    time.Time `gorm:"index"`
}

func (a *ActivityLog) TableName() string {
	return "activity_logs"
}

type ActivityLogFilters struct {
	TargetEntity string
	ActorID      *uint
	Limit        int
}

type ActivityLogRepository struct {
	db *gorm.DB
}

func NewActivityLogRepository(db *gorm.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

func (r *ActivityLogRepository) CreateLog(ctx context.Context, entry *ActivityLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to write activity log: %w", err)
	}
	return nil
}

// GetLogs returns entries newest first.
func (r *ActivityLogRepository) GetLogs(ctx context.Context, filters ActivityLogFilters) ([]ActivityLog, error) {
	var logs []ActivityLog

	query := r.db.WithContext(ctx).Model(&ActivityLog{})
	if filters.TargetEntity != "" {
		query = query.Where("target_entity = ?", filters.TargetEntity)
	}
	if filters.ActorID != nil {
		query = query.Where("actor_id = ?", *filters.ActorID)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}

	if err := query.Order("created_at DESC, id DESC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to list activity logs: %w", err)
	}
	return logs, nil
}
