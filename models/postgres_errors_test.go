package models_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Romarate18/StockaDoodle-IMS/models"
)

// newMockPostgres returns a gorm handle speaking the postgres dialect over sqlmock,
// so lib/pq error codes can be fed to the repositories.
func newMockPostgres(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         logger.Discard,
		TranslateError: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestPostgresUniqueViolation(t *testing.T) {
	db, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "categories"`)).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	err := models.NewCategoriesRepository(db).CreateCategory(context.Background(), &models.Category{Name: "Dairy"})
	assert.ErrorIs(t, err, models.ErrCategoryNameTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresForeignKeyViolation(t *testing.T) {
	db, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "products"`)).
		WillReturnError(&pq.Error{Code: "23503", Message: "insert or update on table \"products\" violates foreign key constraint"})
	mock.ExpectRollback()

	categoryID := uint(7)
	err := models.NewProductsRepository(db).CreateProduct(context.Background(), &models.Product{
		Name:       "Milk",
		Price:      decimal.NewFromInt(50),
		CategoryID: &categoryID,
	})

	var ve models.ValidationErrors
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"Invalid category ID"}, ve.GetMessages())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresOtherErrorsPassThrough(t *testing.T) {
	db, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "categories"`)).
		WillReturnError(&pq.Error{Code: "57014", Message: "canceling statement due to user request"})
	mock.ExpectRollback()

	err := models.NewCategoriesRepository(db).CreateCategory(context.Background(), &models.Category{Name: "Dairy"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrCategoryNameTaken)

	var pqErr *pq.Error
	require.True(t, errors.As(err, &pqErr))
	assert.Equal(t, pq.ErrorCode("57014"), pqErr.Code)
}
