package models

// Category represents a product category.
// Names are unique; a category cannot be removed while products reference it.
type Category struct {
	ID          uint      `gorm:"primaryKey"`
	Name        string    `gorm:"size:100;uniqueIndex;not null"`
	Description *string   `gorm:"size:255"`
	Image       []byte    `gorm:"column:category_image"`
	Products    []Product `gorm:"foreignKey:CategoryID"`
}

func (c *Category) TableName() string {
	return "categories"
}
