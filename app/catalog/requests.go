package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Romarate18/StockaDoodle-IMS/app/form"
	"github.com/Romarate18/StockaDoodle-IMS/models"
)

// writeRequest is the body accepted by POST and PUT. name and price are
// required; every other field falls back to its default when omitted.
type writeRequest struct {
	Name           string
	Brand          *string
	Price          decimal.Decimal
	CategoryID     *uint
	StockLevel     int
	MinStockLevel  int
	ExpirationDate *time.Time
	Image          []byte
	ActorID        *uint
}

// patchRequest is the body accepted by PATCH. Only set fields change.
type patchRequest struct {
	Name           form.Optional[string]
	Brand          form.Optional[*string]
	Price          form.Optional[decimal.Decimal]
	CategoryID     form.Optional[*uint]
	StockLevel     form.Optional[int]
	MinStockLevel  form.Optional[int]
	ExpirationDate form.Optional[*time.Time]
	Image          []byte
	ActorID        *uint
}

// bindPrice accepts a non-negative amount that fits the price column.
func bindPrice(p *form.Payload) (decimal.Decimal, error) {
	price, err := p.Money("price", models.PriceIntegerDigits)
	if err != nil {
		return decimal.Decimal{}, models.Invalid("price", "Price must be a number")
	}
	if price.IsNegative() {
		return decimal.Decimal{}, models.Invalid("price", "Price must be non-negative")
	}
	return price, nil
}

// bindCategoryID accepts an absent or empty value as "no category".
func bindCategoryID(p *form.Payload) (*uint, error) {
	raw := strings.TrimSpace(p.String("category_id"))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, models.Invalid("category_id", "Invalid category ID")
	}
	u := uint(id)
	return &u, nil
}

func bindWrite(p *form.Payload, missingName string) (writeRequest, error) {
	name := strings.TrimSpace(p.String("name"))
	if name == "" {
		return writeRequest{}, models.Invalid("name", missingName)
	}

	price, err := bindPrice(p)
	if err != nil {
		return writeRequest{}, err
	}

	categoryID, err := bindCategoryID(p)
	if err != nil {
		return writeRequest{}, err
	}

	return writeRequest{
		Name:           name,
		Brand:          p.NullableString("brand"),
		Price:          price,
		CategoryID:     categoryID,
		StockLevel:     p.Int("stock_level", models.DefaultStockLevel),
		MinStockLevel:  p.Int("min_stock_level", models.DefaultMinStockLevel),
		ExpirationDate: p.Date("expiration_date"),
		Image:          p.Image(),
		ActorID:        p.Uint("user_id"),
	}, nil
}

func bindPatch(p *form.Payload) (patchRequest, error) {
	req := patchRequest{
		Image:   p.Image(),
		ActorID: p.Uint("user_id"),
	}

	if p.Has("name") {
		name := strings.TrimSpace(p.String("name"))
		if name == "" {
			return patchRequest{}, models.Invalid("name", "Product name cannot be empty")
		}
		req.Name = form.Some(name)
	}
	if p.Has("brand") {
		req.Brand = form.Some(p.NullableString("brand"))
	}
	if p.Has("price") {
		price, err := bindPrice(p)
		if err != nil {
			return patchRequest{}, err
		}
		req.Price = form.Some(price)
	}
	if p.Has("category_id") {
		categoryID, err := bindCategoryID(p)
		if err != nil {
			return patchRequest{}, err
		}
		req.CategoryID = form.Some(categoryID)
	}
	if n, ok := p.IntValue("stock_level"); ok {
		req.StockLevel = form.Some(n)
	}
	if n, ok := p.IntValue("min_stock_level"); ok {
		req.MinStockLevel = form.Some(n)
	}
	if p.Has("expiration_date") {
		req.ExpirationDate = form.Some(p.Date("expiration_date"))
	}
	return req, nil
}

// apply overwrites every writable field of p. The stored image is kept
// unless a new one was sent.
func (req writeRequest) apply(p *models.Product) {
	if p.CategoryID == nil || req.CategoryID == nil || *p.CategoryID != *req.CategoryID {
		p.Category = nil
	}
	p.Name = req.Name
	p.Brand = req.Brand
	p.Price = req.Price
	p.CategoryID = req.CategoryID
	p.StockLevel = req.StockLevel
	p.MinStockLevel = req.MinStockLevel
	p.ExpirationDate = req.ExpirationDate
	if req.Image != nil {
		p.Image = req.Image
	}
}

// apply copies the set fields onto p and describes each change.
func (req patchRequest) apply(p *models.Product) []string {
	var changes []string
	if req.Name.Set {
		changes = append(changes, fmt.Sprintf("name: %s → %s", p.Name, req.Name.Value))
		p.Name = req.Name.Value
	}
	if req.Brand.Set {
		changes = append(changes, "brand updated")
		p.Brand = req.Brand.Value
	}
	if req.Price.Set {
		changes = append(changes, fmt.Sprintf("price: %s → %s", p.Price.StringFixed(2), req.Price.Value.StringFixed(2)))
		p.Price = req.Price.Value
	}
	if req.CategoryID.Set {
		if req.CategoryID.Value == nil {
			changes = append(changes, "category cleared")
		} else {
			changes = append(changes, fmt.Sprintf("category_id: %d", *req.CategoryID.Value))
		}
		p.CategoryID = req.CategoryID.Value
		p.Category = nil
	}
	if req.StockLevel.Set {
		changes = append(changes, fmt.Sprintf("stock_level: %d → %d", p.StockLevel, req.StockLevel.Value))
		p.StockLevel = req.StockLevel.Value
	}
	if req.MinStockLevel.Set {
		changes = append(changes, fmt.Sprintf("min_stock_level: %d → %d", p.MinStockLevel, req.MinStockLevel.Value))
		p.MinStockLevel = req.MinStockLevel.Value
	}
	if req.ExpirationDate.Set {
		changes = append(changes, "expiration_date updated")
		p.ExpirationDate = req.ExpirationDate.Value
	}
	if req.Image != nil {
		changes = append(changes, "image updated")
		p.Image = req.Image
	}
	return changes
}
