package categories

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

const notFoundMessage = "Category not found"

type CategoryResponse struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	ImageBase64 string  `json:"image_base64,omitempty"`
}

type ListResponse struct {
	Total      int                `json:"total"`
	Categories []CategoryResponse `json:"categories"`
}

type CategoryProvider interface {
	GetAllCategories(ctx context.Context, includeImage bool) ([]models.Category, error)
	GetCategory(ctx context.Context, id uint) (*models.Category, error)
	CategoryNameTaken(ctx context.Context, name string, excludeID uint) (bool, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	SaveCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id uint) error
}

type ActivityRecorder interface {
	Record(ctx context.Context, e activity.Entry)
}

type CategoryHandler struct {
	repo     CategoryProvider
	activity ActivityRecorder
	form     form.Options
}

func NewCategoryHandler(r CategoryProvider, a ActivityRecorder, opts form.Options) *CategoryHandler {
	return &CategoryHandler{repo: r, activity: a, form: opts}
}

func toResponse(c *models.Category, includeImage bool) CategoryResponse {
	resp := CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
	}
	if includeImage && len(c.Image) > 0 {
		resp.ImageBase64 = base64.StdEncoding.EncodeToString(c.Image)
	}
	return resp
}

func categoryID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// load resolves the {id} path parameter, writing a 404 when it does not exist.
func (h *CategoryHandler) load(w http.ResponseWriter, r *http.Request) (*models.Category, bool) {
	id, ok := categoryID(r)
	if !ok {
		respond.Errors(w, http.StatusNotFound, notFoundMessage)
		return nil, false
	}
	category, err := h.repo.GetCategory(r.Context(), id)
	if err != nil {
		respond.Error(w, err, notFoundMessage, "failed to fetch category")
		return nil, false
	}
	return category, true
}

// checkName writes a 400 when name is used by a category other than excludeID.
func (h *CategoryHandler) checkName(ctx context.Context, w http.ResponseWriter, name string, excludeID uint) bool {
	taken, err := h.repo.CategoryNameTaken(ctx, name, excludeID)
	if err != nil {
		respond.Errors(w, http.StatusInternalServerError, "failed to check category name")
		return false
	}
	if taken {
		respond.Errors(w, http.StatusBadRequest, "Category name already exists")
		return false
	}
	return true
}

// HandleGetAll handles GET /categories
func (h *CategoryHandler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	includeImage := r.URL.Query().Get("include_image") == "true"

	categories, err := h.repo.GetAllCategories(r.Context(), includeImage)
	if err != nil {
		respond.Errors(w, http.StatusInternalServerError, "failed to fetch categories")
		return
	}

	response := ListResponse{
		Total:      len(categories),
		Categories: make([]CategoryResponse, len(categories)),
	}
	for i := range categories {
		response.Categories[i] = toResponse(&categories[i], includeImage)
	}
	respond.JSON(w, http.StatusOK, response)
}

// HandleGet handles GET /categories/{id}
func (h *CategoryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	category, ok := h.load(w, r)
	if !ok {
		return
	}
	includeImage := r.URL.Query().Get("include_image") == "true"
	respond.JSON(w, http.StatusOK, toResponse(category, includeImage))
}

// HandleCreate handles POST /categories
func (h *CategoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	payload, err := form.Parse(r, h.form)
	if err != nil {
		respond.Errors(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	input, err := bindWrite(payload, "Category name is required")
	if err != nil {
		respond.Error(w, err, notFoundMessage, "Failed to create category")
		return
	}

	if !h.checkName(r.Context(), w, input.Name, 0) {
		return
	}

	category := &models.Category{
		Name:        input.Name,
		Description: input.Description,
		Image:       input.Image,
	}
	if err := h.repo.CreateCategory(r.Context(), category); err != nil {
		respond.Error(w, err, notFoundMessage, "Failed to create category")
		return
	}

	h.activity.Record(r.Context(), activity.Entry{
		Method:      http.MethodPost,
		Entity:      activity.EntityCategory,
		ActorID:     input.ActorID,
		Description: "Created category: " + category.Name,
	})

	respond.JSON(w, http.StatusCreated, toResponse(category, true))
}

// HandleReplace handles PUT /categories/{id}
func (h *CategoryHandler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	category, ok := h.load(w, r)
	if !ok {
		return
	}

	payload, err := form.Parse(r, h.form)
	if err != nil {
		respond.Errors(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	input, err := bindWrite(payload, "Category name is required for PUT")
	if err != nil {
		respond.Error(w, err, notFoundMessage, "Failed to replace category")
		return
	}

	if !h.checkName(r.Context(), w, input.Name, category.ID) {
		return
	}

	oldName := category.Name
	category.Name = input.Name
	category.Description = input.Description
	if input.Image != nil {
		category.Image = input.Image
	}

	if err := h.repo.SaveCategory(r.Context(), category); err != nil {
		respond.Error(w, err, notFoundMessage, "Failed to replace category")
		return
	}

	h.activity.Record(r.Context(), activity.Entry{
		Method:      http.MethodPut,
		Entity:      activity.EntityCategory,
		ActorID:     input.ActorID,
		Description: fmt.Sprintf("Replaced category: %s → %s", oldName, category.Name),
	})

	respond.JSON(w, http.StatusOK, toResponse(category, true))
}

// HandleUpdate handles PATCH /categories/{id}
func (h *CategoryHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	category, ok := h.load(w, r)
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
		respond.Error(w, err, notFoundMessage, "Failed to update category")
		return
	}

	var changes []string
	if input.Name.Set {
		if !h.checkName(r.Context(), w, input.Name.Value, category.ID) {
			return
		}
		changes = append(changes, fmt.Sprintf("name: %s → %s", category.Name, input.Name.Value))
		category.Name = input.Name.Value
	}
	if input.Description.Set {
		changes = append(changes, "description updated")
		category.Description = input.Description.Value
	}
	if input.Image != nil {
		changes = append(changes, "image updated")
		category.Image = input.Image
	}

	if err := h.repo.SaveCategory(r.Context(), category); err != nil {
		respond.Error(w, err, notFoundMessage, "Failed to update category")
		return
	}

	if len(changes) == 0 {
		changes = append(changes, "no changes")
	}
	h.activity.Record(r.Context(), activity.Entry{
		Method:      http.MethodPatch,
		Entity:      activity.EntityCategory,
		ActorID:     input.ActorID,
		Description: fmt.Sprintf("Updated category %s: %s", category.Name, strings.Join(changes, ", ")),
	})

	respond.JSON(w, http.StatusOK, toResponse(category, true))
}

// HandleDelete handles DELETE /categories/{id}
// The category must have no linked products.
func (h *CategoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	category, ok := h.load(w, r)
	if !ok {
		return
	}

	// The body is optional here; an unreadable one only loses the actor.
	var actorID *uint
	if payload, err := form.Parse(r, h.form); err == nil {
		actorID = payload.Uint("user_id")
	}

	if err := h.repo.DeleteCategory(r.Context(), category.ID); err != nil {
		respond.Error(w, err, notFoundMessage, "Failed to delete category")
		return
	}

	h.activity.Record(r.Context(), activity.Entry{
		Method:      http.MethodDelete,
		Entity:      activity.EntityCategory,
		ActorID:     actorID,
		Description: fmt.Sprintf("Deleted category '%s'", category.Name),
	})

	respond.Message(w, http.StatusOK, fmt.Sprintf("Category '%s' deleted successfully", category.Name))
}
