package activity

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Romarate18/StockaDoodle-IMS/app/respond"
	"github.com/Romarate18/StockaDoodle-IMS/models"
)

const (
	defaultLogLimit = 100
	maxLogLimit     = 500
)

type Response struct {
	Total int           `json:"total"`
	Logs  []LogResponse `json:"logs"`
}

type LogResponse struct {
	ID           uint      `json:"id"`
	Method       string    `json:"method"`
	TargetEntity string    `json:"target_entity"`
	UserID       *uint     `json:"user_id"`
	Details      string    `json:"details"`
	Timestamp    time.Time `json:"timestamp"`
}

type LogProvider interface {
	GetLogs(ctx context.Context, filters models.ActivityLogFilters) ([]models.ActivityLog, error)
}

type LogHandler struct {
	repo LogProvider
}

func NewLogHandler(r LogProvider) *LogHandler {
	return &LogHandler{repo: r}
}

// HandleList serves GET /logs?entity=&user_id=&limit=
func (h *LogHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := defaultLogLimit
	if lStr := q.Get("limit"); lStr != "" {
		if l, err := strconv.Atoi(lStr); err == nil {
			if l < 1 {
				limit = 1
			} else if l > maxLogLimit {
				limit = maxLogLimit
			} else {
				limit = l
			}
		}
	}

	filters := models.ActivityLogFilters{
		TargetEntity: q.Get("entity"),
		Limit:        limit,
	}
	if uStr := q.Get("user_id"); uStr != "" {
		if u, err := strconv.ParseUint(uStr, 10, 64); err == nil {
			id := uint(u)
			filters.ActorID = &id
		}
	}

	logs, err := h.repo.GetLogs(r.Context(), filters)
	if err != nil {
		respond.Errors(w, http.StatusInternalServerError, "failed to fetch activity logs")
		return
	}

	resp := Response{Total: len(logs), Logs: make([]LogResponse, len(logs))}
	for i, l := range logs {
		resp.Logs[i] = LogResponse{
			ID:           l.ID,
			Method:       l.Method,
			TargetEntity: l.TargetEntity,
			UserID:       l.ActorID,
			Details:      l.Description,
			Timestamp:    l.CreatedAt,
		}
	}
	respond.JSON(w, http.StatusOK, resp)
}
