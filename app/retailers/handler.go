package retailers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Romarate18/StockaDoodle-IMS/app/activity"
	"github.com/Romarate18/StockaDoodle-IMS/app/form"
	"github.com/Romarate18/StockaDoodle-IMS/app/respond"
	"github.com/Romarate18/StockaDoodle-IMS/models"
)

const (
	notFoundMessage         = "Retailer metrics not found"
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

var hundred = decimal.NewFromInt(100)

type MetricsResponse struct {
	RetailerID    uint      `json:"retailer_id"`
	CurrentStreak int       `json:"current_streak"`
	DailyQuota    float64   `json:"daily_quota"`
	SalesToday    float64   `json:"sales_today"`
	QuotaProgress float64   `json:"quota_progress"`
	TotalSales    int       `json:"total_sales"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type LeaderboardResponse struct {
	Leaderboard    []MetricsResponse `json:"leaderboard"`
	SortBy         string            `json:"sort_by"`
	TotalRetailers int               `json:"total_retailers"`
}

type QuotaResponse struct {
	Message string          `json:"message"`
	Metrics MetricsResponse `json:"metrics"`
}

type StreakResponse struct {
	Message        string `json:"message"`
	PreviousStreak int    `json:"previous_streak"`
	CurrentStreak  int    `json:"current_streak"`
}

type MetricsProvider interface {
	GetMetrics(ctx context.Context, retailerID uint) (*models.RetailerMetrics, error)
	GetLeaderboard(ctx context.Context, sortBy string, limit int) ([]models.RetailerMetrics, error)
	UpdateQuota(ctx context.Context, retailerID uint, quota decimal.Decimal) (*models.RetailerMetrics, error)
	ResetStreak(ctx context.Context, retailerID uint) (int, error)
}

type LeaderboardCache interface {
	Get(ctx context.Context, sortBy string, limit int) ([]models.RetailerMetrics, bool)
	Set(ctx context.Context, sortBy string, limit int, entries []models.RetailerMetrics)
	Invalidate(ctx context.Context)
}

type ActivityRecorder interface {
	Record(ctx context.Context, e activity.Entry)
}

type RetailerHandler struct {
	repo     MetricsProvider
	cache    LeaderboardCache
	activity ActivityRecorder
	form     form.Options
}

func NewRetailerHandler(r MetricsProvider, c LeaderboardCache, a ActivityRecorder, opts form.Options) *RetailerHandler {
	return &RetailerHandler{repo: r, cache: c, activity: a, form: opts}
}

// quotaProgress is sales as a percentage of quota, to one decimal place.
func quotaProgress(m *models.RetailerMetrics) float64 {
	if !m.DailyQuotaUSD.IsPositive() {
		return 0
	}
	return m.SalesTodayUSD.Mul(hundred).Div(m.DailyQuotaUSD).Round(1).InexactFloat64()
}

func toResponse(m *models.RetailerMetrics) MetricsResponse {
	return MetricsResponse{
		RetailerID:    m.RetailerID,
		CurrentStreak: m.CurrentStreak,
		DailyQuota:    m.DailyQuotaUSD.InexactFloat64(),
		SalesToday:    m.SalesTodayUSD.InexactFloat64(),
		QuotaProgress: quotaProgress(m),
		TotalSales:    m.TotalSales,
		UpdatedAt:     m.UpdatedAt,
	}
}

func retailerID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// actor prefers the first of keys that carries a positive id.
func actor(p *form.Payload, keys ...string) *uint {
	for _, k := range keys {
		if id := p.Uint(k); id != nil {
			return id
		}
	}
	return nil
}

// HandleGetMetrics handles GET /retailer/{user_id}
func (h *RetailerHandler) HandleGetMetrics(w http.ResponseWriter, r *http.Request) {
	id, ok := retailerID(r)
	if !ok {
		respond.Errors(w, http.StatusNotFound, notFoundMessage)
		return
	}

	metrics, err := h.repo.GetMetrics(r.Context(), id)
	if err != nil {
		respond.Error(w, err, notFoundMessage, "Failed to get metrics: "+err.Error())
		return
	}
	respond.JSON(w, http.StatusOK, toResponse(metrics))
}

// HandleLeaderboard handles GET /retailer/leaderboard?sort_by=&limit=
func (h *RetailerHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	sortBy := q.Get("sort_by")
	if !models.ValidSortKey(sortBy) {
		sortBy = models.SortByCurrentStreak
	}

	limit := defaultLeaderboardLimit
	if lStr := q.Get("limit"); lStr != "" {
		if l, err := strconv.Atoi(lStr); err == nil {
			if l < 1 {
				limit = 1
			} else if l > maxLeaderboardLimit {
				limit = maxLeaderboardLimit
			} else {
				limit = l
			}
		}
	}

	entries, hit := h.cache.Get(r.Context(), sortBy, limit)
	if !hit {
		var err error
		entries, err = h.repo.GetLeaderboard(r.Context(), sortBy, limit)
		if err != nil {
			respond.Errors(w, http.StatusInternalServerError, "Failed to get leaderboard: "+err.Error())
			return
		}
		h.cache.Set(r.Context(), sortBy, limit, entries)
	}

	resp := LeaderboardResponse{
		Leaderboard:    make([]MetricsResponse, len(entries)),
		SortBy:         sortBy,
		TotalRetailers: len(entries),
	}
	for i := range entries {
		resp.Leaderboard[i] = toResponse(&entries[i])
	}
	respond.JSON(w, http.StatusOK, resp)
}

// HandleUpdateQuota handles PATCH /retailer/{user_id}/quota
func (h *RetailerHandler) HandleUpdateQuota(w http.ResponseWriter, r *http.Request) {
	id, ok := retailerID(r)
	if !ok {
		respond.Errors(w, http.StatusNotFound, notFoundMessage)
		return
	}

	payload, err := form.Parse(r, h.form)
	if err != nil {
		respond.Errors(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if payload.NullableString("daily_quota") == nil {
		respond.Errors(w, http.StatusBadRequest, "daily_quota is required")
		return
	}
	quota, err := payload.Money("daily_quota", models.QuotaIntegerDigits)
	if errors.Is(err, form.ErrOutOfRange) {
		respond.Errors(w, http.StatusBadRequest, "daily_quota is too large")
		return
	}
	if err != nil {
		respond.Errors(w, http.StatusBadRequest, "daily_quota must be a number")
		return
	}
	if quota.IsNegative() {
		respond.Errors(w, http.StatusBadRequest, "daily_quota must be non-negative")
		return
	}

	metrics, err := h.repo.UpdateQuota(r.Context(), id, quota)
	if err != nil {
		respond.Errors(w, http.StatusBadRequest, "Failed to update quota: "+err.Error())
		return
	}
	h.cache.Invalidate(r.Context())

	h.activity.Record(r.Context(), activity.Entry{
		Method:      http.MethodPatch,
		Entity:      activity.EntityRetailerMetrics,
		ActorID:     actor(payload, "updated_by", "user_id"),
		Description: fmt.Sprintf("Updated quota for retailer %d to $%s", id, quota.StringFixed(2)),
	})

	respond.JSON(w, http.StatusOK, QuotaResponse{
		Message: "Quota updated successfully",
		Metrics: toResponse(metrics),
	})
}

// HandleResetStreak handles POST /retailer/{user_id}/reset-streak
func (h *RetailerHandler) HandleResetStreak(w http.ResponseWriter, r *http.Request) {
	id, ok := retailerID(r)
	if !ok {
		respond.Errors(w, http.StatusNotFound, notFoundMessage)
		return
	}

	// The body is optional; it only names the acting admin.
	var actorID *uint
	if payload, err := form.Parse(r, h.form); err == nil {
		actorID = actor(payload, "admin_id", "user_id")
	}

	previous, err := h.repo.ResetStreak(r.Context(), id)
	if errors.Is(err, models.ErrRetailerMetricsNotFound) {
		respond.Errors(w, http.StatusNotFound, notFoundMessage)
		return
	}
	if err != nil {
		respond.Errors(w, http.StatusInternalServerError, "Failed to reset streak: "+err.Error())
		return
	}
	h.cache.Invalidate(r.Context())

	h.activity.Record(r.Context(), activity.Entry{
		Method:      http.MethodPost,
		Entity:      activity.EntityRetailerMetrics,
		ActorID:     actorID,
		Description: fmt.Sprintf("Reset streak for retailer %d (was %d)", id, previous),
	})

	respond.JSON(w, http.StatusOK, StreakResponse{
		Message:        "Streak reset successfully",
		PreviousStreak: previous,
		CurrentStreak:  0,
	})
}
