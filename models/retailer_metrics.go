package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Leaderboard sort keys.
const (
	SortByCurrentStreak = "current_streak"
	SortByDailyQuota    = "daily_quota_usd"
	SortByTotalSales    = "total_sales"
)

// QuotaIntegerDigits is the integer part of the decimal(12,2) quota column.
const QuotaIntegerDigits = 10

// RetailerMetrics tracks a retailer's sales performance.
type RetailerMetrics struct {
	RetailerID    uint            `gorm:"primaryKey;autoIncrement:false"`
	CurrentStreak int             `gorm:"not null"`
	DailyQuotaUSD decimal.Decimal `gorm:"column:daily_quota_usd;type:decimal(12,2);not null"`
	SalesTodayUSD decimal.Decimal `gorm:"column:sales_today_usd;type:decimal(12,2);not null"`
	TotalSales    int             `gorm:"not null"`
	UpdatedAt     time.Time
}

func (m *RetailerMetrics) TableName() string {
	return "retailer_metrics"
}

// ValidSortKey reports whether key names a leaderboard ordering.
func ValidSortKey(key string) bool {
	switch key {
	case SortByCurrentStreak, SortByDailyQuota, SortByTotalSales:
		return true
	}
	return false
}

type RetailerMetricsRepository struct {
	db *gorm.DB
}

func NewRetailerMetricsRepository(db *gorm.DB) *RetailerMetricsRepository {
	return &RetailerMetricsRepository{db: db}
}

func (r *RetailerMetricsRepository) GetMetrics(ctx context.Context, retailerID uint) (*RetailerMetrics, error) {
	var metrics RetailerMetrics
	if err := r.db.WithContext(ctx).First(&metrics, "retailer_id = ?", retailerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRetailerMetricsNotFound
		}
		return nil, err
	}
	return &metrics, nil
}

// GetLeaderboard returns the top retailers ordered by sortBy, descending.
// Unknown sort keys fall back to the current streak.
func (r *RetailerMetricsRepository) GetLeaderboard(ctx context.Context, sortBy string, limit int) ([]RetailerMetrics, error) {
	if !ValidSortKey(sortBy) {
		sortBy = SortByCurrentStreak
	}

	var metrics []RetailerMetrics
	err := r.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: sortBy}, Desc: true}).
		Order("retailer_id").
		Limit(limit).
		Find(&metrics).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return metrics, nil
}

// UpdateQuota sets a retailer's daily quota, creating the metrics row on first use.
func (r *RetailerMetricsRepository) UpdateQuota(ctx context.Context, retailerID uint, quota decimal.Decimal) (*RetailerMetrics, error) {
	var metrics RetailerMetrics
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&metrics, "retailer_id = ?", retailerID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics = RetailerMetrics{RetailerID: retailerID, DailyQuotaUSD: quota}
			return tx.Create(&metrics).Error
		}
		if err != nil {
			return err
		}
		metrics.DailyQuotaUSD = quota
		return tx.Save(&metrics).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update quota for retailer %d: %w", retailerID, err)
	}
	return &metrics, nil
}

// ResetStreak zeroes a retailer's streak and returns the previous value.
func (r *RetailerMetricsRepository) ResetStreak(ctx context.Context, retailerID uint) (int, error) {
	var previous int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var metrics RetailerMetrics
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&metrics, "retailer_id = ?", retailerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRetailerMetricsNotFound
			}
			return err
		}
		previous = metrics.CurrentStreak
		return tx.Model(&metrics).Update("current_streak", 0).Error
	})
	if err != nil {
		return 0, err
	}
	return previous, nil
}
