package models

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	// ErrProductNotFound is returned when a product is not found.
	ErrProductNotFound = errors.New("product not found")
	// ErrCategoryNotFound is returned when a category is not found.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrCategoryNameTaken is returned when a write would duplicate a category name.
	ErrCategoryNameTaken = errors.New("category name already exists")
	// ErrCategoryInUse is matched by CategoryInUseError.
	ErrCategoryInUse = errors.New("category has linked products")
	// ErrRetailerMetricsNotFound is returned when a retailer has no metrics row.
	ErrRetailerMetricsNotFound = errors.New("retailer metrics not found")
)

// CategoryInUseError reports how many products still reference a category
// that was about to be deleted.
type CategoryInUseError struct {
	CategoryID uint
	Count      int64
}

func (e *CategoryInUseError) Error() string {
	return fmt.Sprintf("Cannot delete category while it has %d linked products", e.Count)
}

func (e *CategoryInUseError) Is(target error) bool {
	return target == ErrCategoryInUse
}

// Postgres SQLSTATE codes, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// isDuplicateKey recognises unique-constraint failures from both supported drivers.
// The sqlite dialector translates them to gorm.ErrDuplicatedKey; lib/pq surfaces a raw *pq.Error.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation
}
