package models

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductsRepository struct {
	db *gorm.DB
}

type ProductFilters struct {
	Search       string
	CategoryID   *uint
	IncludeImage bool
}

func NewProductsRepository(db *gorm.DB) *ProductsRepository {
	return &ProductsRepository{
		db: db,
	}
}

func (r *ProductsRepository) GetFilteredProducts(ctx context.Context, filters ProductFilters) ([]Product, error) {
	var products []Product

	query := r.db.WithContext(ctx).Model(&Product{}).
		Preload("Category", func(db *gorm.DB) *gorm.DB {
			return db.Omit("Image")
		})

	// Filter
	if filters.Search != "" {
		query = query.Where(lowerFunc(r.db)+"(products.name) LIKE ?", "%"+strings.ToLower(filters.Search)+"%")
	}
	if filters.CategoryID != nil {
		query = query.Where("products.category_id = ?", *filters.CategoryID)
	}
	if !filters.IncludeImage {
		query = query.Omit("Image")
	}

	if err := query.Order("products.id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (r *ProductsRepository) GetProduct(ctx context.Context, id uint) (*Product, error) {
	var product Product
	if err := r.db.WithContext(ctx).
		Preload("Category", func(db *gorm.DB) *gorm.DB {
			return db.Omit("Image")
		}).
		First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err // Other DB error
	}
	return &product, nil
}

func (r *ProductsRepository) CreateProduct(ctx context.Context, product *Product) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error; err != nil {
		if isForeignKeyViolation(err) {
			return Invalid("category_id", "Invalid category ID")
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return r.reloadCategory(ctx, product)
}

// SaveProduct writes every column of product. The loaded Category association
// is never written back; CategoryID alone decides the link.
func (r *ProductsRepository) SaveProduct(ctx context.Context, product *Product) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(product).Error; err != nil {
		if isForeignKeyViolation(err) {
			return Invalid("category_id", "Invalid category ID")
		}
		return fmt.Errorf("failed to save product %d: %w", product.ID, err)
	}
	return r.reloadCategory(ctx, product)
}

func (r *ProductsRepository) DeleteProduct(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&Product{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// lowerFunc names the case-folding SQL function for the connected store.
// Postgres LOWER is Unicode aware; on SQLite the database package registers
// unicode_lower because the built-in folds ASCII only.
func lowerFunc(db *gorm.DB) string {
	if db.Dialector.Name() == "sqlite" {
		return "unicode_lower"
	}
	return "LOWER"
}

// reloadCategory refreshes the association after CategoryID changed.
func (r *ProductsRepository) reloadCategory(ctx context.Context, product *Product) error {
	product.Category = nil
	if product.CategoryID == nil {
		return nil
	}

	var category Category
	err := r.db.WithContext(ctx).Omit("Image").First(&category, *product.CategoryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load category %d: %w", *product.CategoryID, err)
	}
	product.Category = &category
	return nil
}
