// Package respond writes JSON bodies and maps domain errors to status codes.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Romarate18/StockaDoodle-IMS/models"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Errors []string `json:"errors"`
}

// MessageResponse is the body of delete and other acknowledgement replies.
type MessageResponse struct {
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func Errors(w http.ResponseWriter, status int, messages ...string) {
	JSON(w, status, ErrorResponse{Errors: messages})
}

func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, MessageResponse{Message: message})
}

// Error maps err onto the API's error taxonomy. notFound is the message used
// for a 404; anything unrecognised becomes a 500 carrying fallback.
func Error(w http.ResponseWriter, err error, notFound, fallback string) {
	var validation models.ValidationErrors
	var inUse *models.CategoryInUseError

	switch {
	case errors.As(err, &validation):
		Errors(w, http.StatusBadRequest, validation.GetMessages()...)
	case errors.As(err, &inUse):
		Errors(w, http.StatusBadRequest, inUse.Error())
	case errors.Is(err, models.ErrCategoryNameTaken):
		Errors(w, http.StatusBadRequest, "Category name already exists")
	case errors.Is(err, models.ErrProductNotFound),
		errors.Is(err, models.ErrCategoryNotFound),
		errors.Is(err, models.ErrRetailerMetricsNotFound):
		Errors(w, http.StatusNotFound, notFound)
	default:
		Errors(w, http.StatusInternalServerError, fallback)
	}
}
