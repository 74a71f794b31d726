package models

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CategoriesRepository struct {
	db *gorm.DB
}

func NewCategoriesRepository(db *gorm.DB) *CategoriesRepository {
	return &CategoriesRepository{
		db: db,
	}
}

// GetAllCategories returns every category ordered by name.
// Image bytes are only loaded when includeImage is set.
func (r *CategoriesRepository) GetAllCategories(ctx context.Context, includeImage bool) ([]Category, error) {
	var categories []Category

	query := r.db.WithContext(ctx).Order("name")
	if !includeImage {
		query = query.Omit("Image")
	}

	if err := query.Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (r *CategoriesRepository) GetCategory(ctx context.Context, id uint) (*Category, error) {
	var category Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (r *CategoriesRepository) CategoryExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to look up category %d: %w", id, err)
	}
	return count > 0, nil
}

// CategoryNameTaken reports whether another category already uses name.
// excludeID is ignored when zero.
func (r *CategoriesRepository) CategoryNameTaken(ctx context.Context, name string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&Category{}).Where("name = ?", name)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check category name: %w", err)
	}
	return count > 0, nil
}

// CountProducts returns the number of products linked to a category.
func (r *CategoriesRepository) CountProducts(ctx context.Context, id uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Product{}).Where("category_id = ?", id).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count products for category %d: %w", id, err)
	}
	return count, nil
}

func (r *CategoriesRepository) CreateCategory(ctx context.Context, category *Category) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(category).Error
	if isDuplicateKey(err) {
		return ErrCategoryNameTaken
	}
	return err
}

// SaveCategory writes every column of category, including nil description and image.
func (r *CategoriesRepository) SaveCategory(ctx context.Context, category *Category) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Save(category).Error
	if isDuplicateKey(err) {
		return ErrCategoryNameTaken
	}
	return err
}

// DeleteCategory removes a category that no product references.
// The product count and the delete share one transaction; a product linked
// concurrently trips the foreign key and is reported the same way.
func (r *CategoriesRepository) DeleteCategory(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Product{}).Where("category_id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count linked products: %w", err)
		}
		if count > 0 {
			return &CategoryInUseError{CategoryID: id, Count: count}
		}

		res := tx.Delete(&Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCategoryNotFound
		}
		return nil
	})

	if isForeignKeyViolation(err) {
		count, countErr := r.CountProducts(ctx, id)
		if countErr != nil {
			return countErr
		}
		return &CategoryInUseError{CategoryID: id, Count: count}
	}
	return err
}
