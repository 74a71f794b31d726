package catalog

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Romarate18/StockaDoodle-IMS/app/activity"
	"github.com/Romarate18/StockaDoodle-IMS/app/form"
	"github.com/Romarate18/StockaDoodle-IMS/app/respond"
	"github.com/Romarate18/StockaDoodle-IMS/models"
)

const (
	notFoundMessage = "Product not found"
	dateLayout      = "2006-01-02"
)

type Category struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	Brand          *string   `json:"brand"`
	Price          float64   `json:"price"`
	CategoryID     *uint     `json:"category_id"`
	Category       *Category `json:"category"`
	StockLevel     int       `json:"stock_level"`
	MinStockLevel  int       `json:"min_stock_level"`
	LowStock       bool      `json:"low_stock"`
	ExpirationDate *string   `json:"expiration_date"`
	ImageBase64    string    `json:"image_base64,omitempty"`
}

type ProductProvider interface {
	GetFilteredProducts(ctx context.Context, filters models.ProductFilters) ([]models.Product, error)
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	SaveProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
}

// CategoryLookup confirms that a category_id refers to a stored category.
type CategoryLookup interface {
	CategoryExists(ctx context.Context, id uint) (bool, error)
}

type ActivityRecorder interface {
	Record(ctx context.Context, e activity.Entry)
}

type CatalogHandler struct {
	repo       ProductProvider
	categories CategoryLookup
	activity   ActivityRecorder
	form       form.Options
}

func NewCatalogHandler(r ProductProvider, c CategoryLookup, a ActivityRecorder, opts form.Options) *CatalogHandler {
	return &CatalogHandler{
		repo:       r,
		categories: c,
		activity:   a,
		form:       opts,
	}
}

func toResponse(p *models.Product, includeImage bool) Product {
	resp := Product{
		ID:            p.ID,
		Name:          p.Name,
		Brand:         p.Brand,
		Price:         p.Price.InexactFloat64(),
		CategoryID:    p.CategoryID,
		StockLevel:    p.StockLevel,
		MinStockLevel: p.MinStockLevel,
		LowStock:      p.IsLowStock(),
	}
	if p.Category != nil && p.CategoryID != nil {
		resp.Category = &Category{ID: p.Category.ID, Name: p.Category.Name}
	}
	if p.ExpirationDate != nil {
		d := p.ExpirationDate.Format(dateLayout)
		resp.ExpirationDate = &d
	}
	if includeImage && len(p.Image) > 0 {
		resp.ImageBase64 = base64.StdEncoding.EncodeToString(p.Image)
	}
	return resp
}

func productID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (h *CatalogHandler) load(w http.ResponseWriter, r *http.Request) (*models.Product, bool) {
	id, ok := productID(r)
	if !ok {
		respond.Errors(w, http.StatusNotFound, notFoundMessage)
		return nil, false
	}
	product, err := h.repo.GetProduct(r.Context(), id)
	if err != nil {
		respond.Error(w, err, notFoundMessage, "failed to fetch product")
		return nil, false
	}
	return product, true
}

// checkCategory writes a 400 when id does not name a stored category.
func (h *CatalogHandler) checkCategory(ctx context.Context, w http.ResponseWriter, id *uint) bool {
	if id == nil {
		return true
	}
	exists, err := h.categories.CategoryExists(ctx, *id)
	if err != nil {
		respond.Errors(w, http.StatusInternalServerError, "failed to check category")
		return false
	}
	if !exists {
		respond.Errors(w, http.StatusBadRequest, "Invalid category ID")
		return false
	}
	return true
}

// HandleGet handles GET /products
func (h *CatalogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filters := models.ProductFilters{
		Search:       strings.TrimSpace(query.Get("search")),
		IncludeImage: query.Get("include_image") == "true",
	}

	if raw := query.Get("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			// No category can match a malformed id.
			respond.JSON(w, http.StatusOK, []Product{})
			return
		}
		categoryID := uint(id)
		filters.CategoryID = &categoryID
	}

	res, err := h.repo.GetFilteredProducts(r.Context(), filters)
	if err != nil {
		respond.Errors(w, http.StatusInternalServerError, "failed to fetch products")
		return
	}

	products := make([]Product, len(res))
	for i := range res {
		products[i] = toResponse(&res[i], filters.IncludeImage)
	}
	respond.JSON(w, http.StatusOK, products)
}

// HandleGetProduct handles GET /products/{id}
func (h *CatalogHandler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, ok := h.load(w, r)
	if !ok {
		return
	}
	includeImage := r.URL.Query().Get("include_image") == "true"
	respond.JSON(w, http.StatusOK, toResponse(product, includeImage))
}

// HandleCreate handles POST /products
func (h *CatalogHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	payload, err := form.Parse(r, h.form)
	if err != nil {
		respond.Errors(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	input, err := bindWrite(payload, "Product name is required")
	if err != nil {
		respond.Error(w, err, notFoundMessage, "Failed to create product")
		return
	}
	if !h.checkCategory(r.Context(), w, input.CategoryID) {
		return
	}

	product := &models.Product{}
	input.apply(product)
	if err := h.repo.CreateProduct(r.Context(), product); err != nil {
		respond.Error(w, err, notFoundMessage, "Failed to create product")
		return
	}

	h.activity.Record(r.Context(), activity.Entry{
		Method:      http.MethodPost,
		Entity:      activity.EntityProduct,
		ActorID:     input.ActorID,
		Description: "Created product: " + product.Name,
	})

	respond.JSON(w, http.StatusCreated, toResponse(product, true))
}

// HandleReplace handles PUT /products/{id}
func (h *CatalogHandler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	product, ok := h.load(w, r)
	if !ok {
		return
	}

	payload, err := form.Parse(r, h.form)
	if err != nil {
		respond.Errors(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	input, err := bindWrite(payload, "Product name is required for PUT")
	if err != nil {
		respond.Error(w, err, notFoundMessage, "Failed to replace product")
		return
	}
	if !h.checkCategory(r.Context(), w, input.CategoryID) {
		return
	}

	oldName := product.Name
	input.apply(product)
	if err := h.repo.SaveProduct(r.Context(), product); err != nil {
		respond.Error(w, err, notFoundMessage, "Failed to replace product")
		return
	}

	h.activity.Record(r.Context(), activity.Entry{
		Method:      http.MethodPut,
		Entity:      activity.EntityProduct,
		ActorID:     input.ActorID,
		Description: fmt.Sprintf("Replaced product: %s → %s", oldName, product.Name),
	})

	respond.JSON(w, http.StatusOK, toResponse(product, true))
}

// HandleUpdate handles PATCH /products/{id}
func (h *CatalogHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	product, ok := h.load(w, r)
	if !ok {
		return
	}

	payload, err := form.Parse(r, h.form)
	if err != nil {
		respond.Errors(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	input, err := bindPatch(payload)
	if err != nil {
		respond.Error(w, err, notFoundMessage, "Failed to update product")
		return
	}
	if input.CategoryID.Set && !h.checkCategory(r.Context(), w, input.CategoryID.Value) {
		return
	}

	changes := input.apply(product)
	if err := h.repo.SaveProduct(r.Context(), product); err != nil {
		respond.Error(w, err, notFoundMessage, "Failed to update product")
		return
	}

	if len(changes) == 0 {
		changes = append(changes, "no changes")
	}
	h.activity.Record(r.Context(), activity.Entry{
		Method:      http.MethodPatch,
		Entity:      activity.EntityProduct,
		ActorID:     input.ActorID,
		Description: fmt.Sprintf("Updated product %s: %s", product.Name, strings.Join(changes, ", ")),
	})

	respond.JSON(w, http.StatusOK, toResponse(product, true))
}

// HandleDelete handles DELETE /products/{id}
func (h *CatalogHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	product, ok := h.load(w, r)
	if !ok {
		return
	}

	var actorID *uint
	if payload, err := form.Parse(r, h.form); err == nil {
		actorID = payload.Uint("user_id")
	}

	if err := h.repo.DeleteProduct(r.Context(), product.ID); err != nil {
		respond.Error(w, err, notFoundMessage, "Failed to delete product")
		return
	}

	h.activity.Record(r.Context(), activity.Entry{
		Method:      http.MethodDelete,
		Entity:      activity.EntityProduct,
		ActorID:     actorID,
		Description: fmt.Sprintf("Deleted product '%s'", product.Name),
	})

	respond.Message(w, http.StatusOK, "Product deleted successfully")
}
